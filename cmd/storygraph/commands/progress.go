package commands

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/pterm/pterm"
)

// cliProgress prints pipeline progress to the terminal using pterm.
// It implements pipeline.Progress.
type cliProgress struct {
	verbosity int
}

func newCLIProgress(verbosity int) *cliProgress {
	return &cliProgress{verbosity: verbosity}
}

func (p *cliProgress) Pass(name string) {
	pterm.Printf("🔄 %s\n", pterm.LightCyan(name))
}

func (p *cliProgress) Round(round, maxRounds int) {
	pterm.Printf("   %s %s\n",
		pterm.Gray("round"),
		pterm.Yellow(fmt.Sprintf("%d/%d", round, maxRounds)))
}

func (p *cliProgress) Story(id string, index, total int) {
	if p.verbosity >= 1 {
		pterm.Printf("   %s %s %s\n",
			pterm.Gray("→"),
			pterm.LightGreen(id),
			pterm.Gray(fmt.Sprintf("(%d/%d)", index+1, total)))
	}
}

// progressEvent is one structured progress record on stdout
type progressEvent struct {
	Type      string                 `json:"type"` // "pass", "round", "story"
	Timestamp time.Time              `json:"timestamp"`
	Data      map[string]interface{} `json:"data"`
}

// jsonProgress emits structured progress events for machine consumption.
// It implements pipeline.Progress.
type jsonProgress struct {
	encoder *json.Encoder
}

func newJSONProgress() *jsonProgress {
	return &jsonProgress{encoder: json.NewEncoder(os.Stderr)}
}

func (p *jsonProgress) Pass(name string) {
	p.encoder.Encode(progressEvent{
		Type:      "pass",
		Timestamp: time.Now(),
		Data:      map[string]interface{}{"name": name},
	})
}

func (p *jsonProgress) Round(round, maxRounds int) {
	p.encoder.Encode(progressEvent{
		Type:      "round",
		Timestamp: time.Now(),
		Data:      map[string]interface{}{"round": round, "max_rounds": maxRounds},
	})
}

func (p *jsonProgress) Story(id string, index, total int) {
	p.encoder.Encode(progressEvent{
		Type:      "story",
		Timestamp: time.Now(),
		Data:      map[string]interface{}{"story_id": id, "index": index, "total": total},
	})
}
