// Package prompts builds the instruction templates sent to the
// text-generation collaborator. The templates steer the model toward the
// JSON contracts the pipeline parses strictly; the pipeline's correctness
// never depends on prompt wording, only on the parse.
package prompts

import (
	"encoding/json"
	"fmt"
	"strings"
)

// DiscoverySystem steers the discovery call
const DiscoverySystem = `You are a product analyst extracting the structure of a product from free-text descriptions.
Identify components (screens, widgets, services), state models, events, data flows, composition and coordination edges, and vocabulary (raw term to canonical name).
Respond with a single JSON object matching exactly:
{"components":[{"name":"","description":""}],"state_models":[{"name":"","description":"","states":[""]}],"events":[{"name":"","description":""}],"data_flows":[{"name":"","description":""}],"edges":[{"source":"","target":"","kind":"composition|coordination","relation":"","description":""}],"vocabulary":{"raw term":"Canonical Name"}}
Use each entity's canonical name consistently. Output JSON only.`

// GenerateSystem steers story generation
const GenerateSystem = `You are a product analyst writing one structured user story.
Respond with a single JSON object matching exactly:
{"title":"","story":"As a ... I want ... so that ...","acceptance_criteria":[{"id":"AC-1","text":""}],"edge_cases":[{"id":"EC-1","text":""}],"interactions":[{"id":"IX-1","text":""}],"data_requirements":[{"id":"DR-1","text":""}]}
Item IDs must be sequential within their section and carry the section prefix (AC, EC, IX, DR). Use only canonical names from the provided graph. Output JSON only.`

// JudgeSystem steers the judgment call
const JudgeSystem = `You are a strict reviewer of structured user stories against a product knowledge graph.
Score the story and itemize violations. Also surface candidate graph edits the story reveals, as relationships.
Respond with a single JSON object matching exactly:
{"overall_score":0.0,"scores":{"clarity":0.0,"completeness":0.0,"graph_consistency":0.0},"violations":[{"section":"","description":"","severity":"minor|major"}],"relationships":[{"type":"component|state_model|event|data_flow|composition|coordination","operation":"add_node|add_edge|edit_node|edit_edge","name":"","canonical_name":"","source":"","target":"","confidence":0.0,"evidence":""}]}
Scores are in [0,1]. Confidence is in [0,1]. Output JSON only.`

// RewriteSystem steers the single rewrite pass
const RewriteSystem = `You are revising a structured user story to address an itemized list of violations.
Change only what the violations require. Respond with the full revised story as a single JSON object in the same shape as the original. Output JSON only.`

// CrossReferenceSystem steers cross-reference extraction
const CrossReferenceSystem = `You are mapping one user story onto a product knowledge graph and its sibling stories.
Respond with a single JSON object matching exactly:
{"ui_mapping":[""],"contract_dependencies":[""],"ownership":{"owns_state":[""],"consumes_state":[""],"emits_events":[""],"listens_to_events":[""]},"related_stories":[{"id":"","relationship":"prerequisite|parallel|dependent|related","description":""}]}
Reference entities by their graph IDs. Output JSON only.`

// ConsistencySystem steers the global consistency scan
const ConsistencySystem = `You are scanning a corpus of user stories plus cross-reference metadata for cross-story contradictions against a product knowledge graph.
Respond with a single JSON object matching exactly:
{"issues":[{"description":"","suggested_fix_type":"","confidence":0.0,"affected_artifacts":[""]}],"fixes":[{"target_story_id":"","fix_type":"term_normalization|contract_id_normalization|bidirectional_link|other","patch":{"op":"add|replace|remove","path":"","item":{"id":"","text":""},"match":{"id":"","text_equals":""},"metadata":{"advisor_id":"consistency"}},"confidence":0.0,"reasoning":""}]}
Only propose patches you are confident about; confidence is in [0,1]. Output JSON only.`

// Discovery renders the discovery user prompt
func Discovery(descriptions, referenceDocs []string) string {
	var b strings.Builder
	b.WriteString("Product descriptions, in order:\n")
	for i, d := range descriptions {
		fmt.Fprintf(&b, "%d. %s\n", i+1, d)
	}
	if len(referenceDocs) > 0 {
		fmt.Fprintf(&b, "\nReference documents: %s\n", strings.Join(referenceDocs, ", "))
	}
	return b.String()
}

// Generate renders the generation user prompt
func Generate(description string, graphJSON []byte) string {
	return fmt.Sprintf("Description:\n%s\n\nCurrent knowledge graph:\n%s\n", description, graphJSON)
}

// Judge renders the judgment user prompt
func Judge(storyJSON, graphJSON []byte) string {
	return fmt.Sprintf("Story:\n%s\n\nKnowledge graph:\n%s\n", storyJSON, graphJSON)
}

// Rewrite renders the rewrite user prompt
func Rewrite(storyJSON []byte, violations interface{}) string {
	violationsJSON, _ := json.Marshal(violations)
	return fmt.Sprintf("Story:\n%s\n\nViolations to address:\n%s\n", storyJSON, violationsJSON)
}

// CrossReference renders the cross-reference user prompt
func CrossReference(rendering string, graphJSON []byte, siblingIDs []string) string {
	return fmt.Sprintf("Story rendering:\n%s\n\nKnowledge graph:\n%s\n\nSibling story IDs: %s\n",
		rendering, graphJSON, strings.Join(siblingIDs, ", "))
}

// Consistency renders the consistency user prompt
func Consistency(corpusJSON, graphJSON []byte) string {
	return fmt.Sprintf("Story corpus with cross-reference metadata:\n%s\n\nKnowledge graph:\n%s\n", corpusJSON, graphJSON)
}
