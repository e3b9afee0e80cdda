package session

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/cryptboot/bootunlock/interfaces"
)

// Step is one volume in the boot plan.
type Step struct {
	interfaces.VolumeDescriptor

	// Folder overrides the mount point name; defaults to the mapper name.
	Folder string `json:"folder,omitempty"`

	// Intermediate marks volumes that only exist to hold another volume's
	// header or key-file. They are torn down once the sequence completes.
	Intermediate bool `json:"intermediate,omitempty"`
}

// Name identifies the step in diagnostics and recovery instructions.
func (s Step) Name() string {
	return "unlock-and-mount " + s.MapperName
}

// Plan is an ordered sequence of volumes. Order expresses dependencies:
// a volume whose unlock parameters live on another volume must come after
// it.
type Plan struct {
	Volumes []Step `json:"volumes"`
}

// Validate checks every descriptor in the plan. Argument errors are fatal
// before any unlock is attempted.
func (p Plan) Validate() error {
	if len(p.Volumes) == 0 {
		return fmt.Errorf("%w: plan has no volumes", interfaces.ErrInvalidDescriptor)
	}
	for _, st := range p.Volumes {
		if err := st.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// LoadPlan reads a JSON plan file.
func LoadPlan(path string) (Plan, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Plan{}, fmt.Errorf("could not read plan file: %w", err)
	}

	var plan Plan
	if err := json.Unmarshal(data, &plan); err != nil {
		return Plan{}, fmt.Errorf("could not parse plan file %s: %w", path, err)
	}
	if err := plan.Validate(); err != nil {
		return Plan{}, err
	}
	return plan, nil
}
