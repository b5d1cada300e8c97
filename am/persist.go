package am

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"

	"github.com/teranos/storygraph/errors"
)

// createBackup creates rotating backups (.back1, .back2, .back3) before modifying config
func createBackup(configPath string) error {
	// Check if file exists before backing up
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return nil // No file to backup
	}

	// Rotate backups: .back3 -> delete, .back2 -> .back3, .back1 -> .back2, current -> .back1
	back3 := configPath + ".back3"
	back2 := configPath + ".back2"
	back1 := configPath + ".back1"

	// Delete oldest backup if exists
	if err := os.Remove(back3); err != nil && !os.IsNotExist(err) {
		// Log deletion failures (but don't fail config save)
		fmt.Printf("Failed to delete old backup %s: %v\n", back3, err)
	}

	// Rotate .back2 to .back3
	if _, err := os.Stat(back2); err == nil {
		if err := os.Rename(back2, back3); err != nil {
			return errors.Wrap(err, "failed to rotate .back2 to .back3")
		}
	}

	// Rotate .back1 to .back2
	if _, err := os.Stat(back1); err == nil {
		if err := os.Rename(back1, back2); err != nil {
			return errors.Wrap(err, "failed to rotate .back1 to .back2")
		}
	}

	// Copy current to .back1
	content, err := os.ReadFile(configPath)
	if err != nil {
		return errors.Wrap(err, "failed to read config for backup")
	}

	if err := os.WriteFile(back1, content, DefaultFilePermissions); err != nil {
		return errors.Wrap(err, "failed to create .back1")
	}

	return nil
}

// GetUserConfigPath returns the path to the user config file in ~/.storygraph/am.toml
func GetUserConfigPath() string {
	dir := UserConfigDir()
	if dir == "" {
		return ""
	}
	return filepath.Join(dir, "am.toml")
}

// loadOrInitializeUserConfig loads the user config file, or creates an empty one if it doesn't exist
func loadOrInitializeUserConfig() (map[string]interface{}, string, error) {
	configPath := GetUserConfigPath()
	if configPath == "" {
		return nil, "", errors.New("could not determine home directory")
	}

	// Ensure ~/.storygraph directory exists
	userDir := filepath.Dir(configPath)
	if err := os.MkdirAll(userDir, 0750); err != nil {
		return nil, "", errors.Wrap(err, "failed to create .storygraph directory")
	}

	// Try to read existing config
	var config map[string]interface{}
	if data, err := os.ReadFile(configPath); err == nil {
		// File exists, parse it
		if err := toml.Unmarshal(data, &config); err != nil {
			return nil, "", errors.Wrap(err, "failed to parse user config")
		}
	} else {
		// File doesn't exist, create empty config
		config = make(map[string]interface{})
	}

	return config, configPath, nil
}

// saveUserConfig writes the config to the user config file with backup
func saveUserConfig(config map[string]interface{}, configPath string) error {
	// Create backup
	if err := createBackup(configPath); err != nil {
		return errors.Wrap(err, "failed to create backup")
	}

	// Marshal to TOML
	data, err := toml.Marshal(config)
	if err != nil {
		return errors.Wrap(err, "failed to marshal config")
	}

	// A running watcher must not reload a write we made ourselves
	noteOwnWrite()

	// Write to file
	if err := os.WriteFile(configPath, data, DefaultFilePermissions); err != nil {
		return errors.Wrap(err, "failed to write user config")
	}

	return nil
}

// UpdateSetting updates a single key inside a section of the user config
// (e.g., UpdateSetting("pipeline", "max_rounds", 5))
func UpdateSetting(section, key string, value interface{}) error {
	config, configPath, err := loadOrInitializeUserConfig()
	if err != nil {
		return errors.Wrap(err, "failed to load user config")
	}

	var settings map[string]interface{}
	if s, ok := config[section].(map[string]interface{}); ok {
		settings = s
	} else {
		settings = make(map[string]interface{})
	}

	settings[key] = value
	config[section] = settings

	return saveUserConfig(config, configPath)
}

// UpdatePipelineMaxRounds updates pipeline.max_rounds in the user config
func UpdatePipelineMaxRounds(rounds int) error {
	return UpdateSetting("pipeline", "max_rounds", rounds)
}

// UpdatePipelineQualityThreshold updates pipeline.quality_threshold in the user config
func UpdatePipelineQualityThreshold(threshold float64) error {
	return UpdateSetting("pipeline", "quality_threshold", threshold)
}

// UpdatePipelineDailyBudget updates pipeline.daily_budget_usd in the user config
func UpdatePipelineDailyBudget(dailyBudget float64) error {
	return UpdateSetting("pipeline", "daily_budget_usd", dailyBudget)
}

// UpdatePipelineMonthlyBudget updates pipeline.monthly_budget_usd in the user config
func UpdatePipelineMonthlyBudget(monthlyBudget float64) error {
	return UpdateSetting("pipeline", "monthly_budget_usd", monthlyBudget)
}

// UpdateOpenRouterModel updates openrouter.model in the user config
func UpdateOpenRouterModel(model string) error {
	return UpdateSetting("openrouter", "model", model)
}

// UpdateLocalInferenceEnabled updates local_inference.enabled in the user config
func UpdateLocalInferenceEnabled(enabled bool) error {
	return UpdateSetting("local_inference", "enabled", enabled)
}

// UpdateLocalInferenceModel updates local_inference.model in the user config
func UpdateLocalInferenceModel(model string) error {
	return UpdateSetting("local_inference", "model", model)
}
