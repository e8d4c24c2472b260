package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/mj1618/desktop-intent/internal/model"
	"github.com/mj1618/desktop-intent/internal/output"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// prevRef in a step's id param refers to the element of the most recent
// step that returned one.
const prevRef = "$prev"

// DoResult is the output of a batch do command.
type DoResult struct {
	OK        bool         `yaml:"ok"              json:"ok"`
	Action    string       `yaml:"action"          json:"action"`
	Steps     int          `yaml:"steps"           json:"steps"`
	Completed int          `yaml:"completed"       json:"completed"`
	Error     string       `yaml:"error,omitempty" json:"error,omitempty"`
	Results   []StepResult `yaml:"results"         json:"results"`
}

// StepResult is the output for a single step within a batch.
type StepResult struct {
	Step   int                     `yaml:"step"   json:"step"`
	Action string                  `yaml:"action" json:"action"`
	Result *model.AutomationResult `yaml:"result" json:"result"`
}

var doCmd = &cobra.Command{
	Use:   "do",
	Short: "Execute multiple steps in a batch",
	Long: `Execute a sequence of steps from a YAML list on stdin (or --file).

Each step is a step type with its params as a map. Steps execute sequentially
against one automation session, so keys held with a key down step stay held
for later steps. By default execution stops on the first failure.

An id of "$prev" refers to the element returned by the latest step that
returned one.

Supported step types: ` + strings.Join(stepNames(), ", ") + `

Example:
  desktop-intent do --window Settings <<'EOF'
  - toggle: { name: "Word wrap", state: on }
  - type: { automation_id: fontName, text: Consolas }
  - scroll_find: { name: "Theme 250" }
  - select: { id: $prev }
  - click: { name: Save, type: Button }
  EOF`,
	RunE: runDo,
}

func init() {
	rootCmd.AddCommand(doCmd)
	doCmd.Flags().String("file", "", "Read steps from this file instead of stdin")
	doCmd.Flags().Bool("stop-on-error", true, "Stop execution on first error")
}

func runDo(cmd *cobra.Command, args []string) error {
	stopOnError, _ := cmd.Flags().GetBool("stop-on-error")
	file, _ := cmd.Flags().GetString("file")

	var data []byte
	var err error
	if file != "" {
		data, err = os.ReadFile(file)
	} else {
		data, err = io.ReadAll(cmd.InOrStdin())
	}
	if err != nil {
		return fmt.Errorf("failed to read steps: %w", err)
	}
	steps, err := parseSteps(data)
	if err != nil {
		return err
	}

	svc, err := newService()
	if err != nil {
		return err
	}
	defer svc.Close(cfg.CloseTimeout)

	e := &executor{svc: svc, defaults: scopeDefaults()}
	result := runBatch(cmd.Context(), e, steps, stopOnError)
	if err := output.Print(result); err != nil {
		return err
	}
	if !result.OK {
		return fmt.Errorf("%s", result.Error)
	}
	return nil
}

// parseSteps decodes a YAML (or JSON) list of single-key step maps.
func parseSteps(data []byte) ([]map[string]map[string]interface{}, error) {
	if len(strings.TrimSpace(string(data))) == 0 {
		return nil, fmt.Errorf("no steps provided: pipe a YAML list of steps")
	}
	var steps []map[string]map[string]interface{}
	if err := yaml.Unmarshal(data, &steps); err != nil {
		return nil, fmt.Errorf("failed to parse YAML steps: %w", err)
	}
	if len(steps) == 0 {
		return nil, fmt.Errorf("no steps provided: expected a YAML list of steps")
	}
	return steps, nil
}

// runBatch executes steps in order. Completed counts successful steps; the
// batch is OK only when every step succeeded.
func runBatch(ctx context.Context, e *executor, steps []map[string]map[string]interface{}, stopOnError bool) DoResult {
	result := DoResult{Action: "do", Steps: len(steps), Results: make([]StepResult, 0, len(steps))}
	var prevID string

	for i, step := range steps {
		stepNum := i + 1
		if ctx.Err() != nil {
			result.Error = fmt.Sprintf("step %d: %v", stepNum, ctx.Err())
			break
		}

		var sr StepResult
		if len(step) != 1 {
			sr = StepResult{Step: stepNum, Result: failed(model.Errorf(model.KindInvalidInput,
				"expected exactly one step type, got %d", len(step)))}
		} else {
			for action, p := range step {
				p = resolvePrev(p, prevID)
				start := time.Now()
				res := e.run(ctx, action, params(p))
				if res.Diagnostics.Duration == 0 {
					res.Diagnostics.Duration = time.Since(start)
				}
				sr = StepResult{Step: stepNum, Action: action, Result: res}
			}
		}
		result.Results = append(result.Results, sr)

		if sr.Result.Success {
			result.Completed++
			if el := sr.Result.Element; el != nil {
				prevID = el.ID
			}
			continue
		}
		if result.Error == "" {
			result.Error = fmt.Sprintf("step %d: %s: %s", stepNum, sr.Result.ErrorKind, sr.Result.Message)
		}
		if stopOnError {
			break
		}
	}
	result.OK = result.Completed == len(steps)
	return result
}

// resolvePrev copies p with every "$prev" value replaced by prevID.
func resolvePrev(p map[string]interface{}, prevID string) map[string]interface{} {
	out := make(map[string]interface{}, len(p))
	for k, v := range p {
		if s, ok := v.(string); ok && s == prevRef {
			v = prevID
		}
		out[k] = v
	}
	return out
}
