package layout

import (
	"os"
	"path/filepath"

	"github.com/pkg/errors"

	"github.com/askiada/go-docpipeline/pkg/pipeline/model"
)

const DefaultExecutable = "run.sh"

// Build validates the layout and returns its steps in order. Relative component directories are resolved against
// componentRoot.
func Build(reg *Registry, lay *Layout, componentRoot string) ([]model.StepDescriptor, error) {
	if lay == nil {
		return nil, errors.Wrap(ErrConfiguration, "layout is nil")
	}
	if reg == nil {
		reg = DefaultRegistry()
	}

	seen := make(map[string]struct{}, len(lay.Steps))
	steps := make([]model.StepDescriptor, 0, len(lay.Steps))

	for i, cfg := range lay.Steps {
		desc, err := buildStep(reg, cfg, i, componentRoot)
		if err != nil {
			return nil, errors.Wrapf(err, "step %d (%q)", i, cfg.Name)
		}

		if _, ok := seen[desc.Name]; ok {
			return nil, errors.Wrapf(ErrConfiguration, "step %d: duplicate name %q", i, desc.Name)
		}
		seen[desc.Name] = struct{}{}

		steps = append(steps, desc)
	}

	return steps, nil
}

func buildStep(reg *Registry, cfg StepConfig, ordinal int, componentRoot string) (model.StepDescriptor, error) {
	switch {
	case cfg.Name == "":
		return model.StepDescriptor{}, errors.Wrap(ErrConfiguration, "name required")
	case cfg.Timeout <= 0:
		return model.StepDescriptor{}, errors.Wrap(ErrConfiguration, "timeout must be positive")
	case cfg.NumErrorLines < 0:
		return model.StepDescriptor{}, errors.Wrap(ErrConfiguration, "numErrorLines must not be negative")
	case cfg.GracePeriod < 0:
		return model.StepDescriptor{}, errors.Wrap(ErrConfiguration, "gracePeriod must not be negative")
	}

	kind := cfg.KindName()
	if kind == "" {
		kind = KindGeneric
	}
	factory, ok := reg.Get(kind)
	if !ok {
		return model.StepDescriptor{}, errors.Wrapf(ErrConfiguration, "unknown kind %q", kind)
	}

	componentDir := cfg.ComponentDir
	if componentDir == "" {
		componentDir = cfg.Name
	}
	if !filepath.IsAbs(componentDir) {
		componentDir = filepath.Join(componentRoot, componentDir)
	}

	executable := cfg.Executable
	if executable == "" {
		executable = DefaultExecutable
	}
	if !filepath.IsAbs(executable) {
		executable = filepath.Join(componentDir, executable)
	}

	err := checkExecutable(executable, cfg.Interpreter != "")
	if err != nil {
		return model.StepDescriptor{}, err
	}

	desc := model.StepDescriptor{
		Name:               cfg.Name,
		Kind:               kind,
		ExecutablePath:     executable,
		Interpreter:        cfg.Interpreter,
		ComponentDir:       componentDir,
		Timeout:            cfg.Timeout.Duration(),
		GracePeriod:        cfg.GracePeriod.Duration(),
		ErrorLineThreshold: cfg.NumErrorLines,
		Ordinal:            ordinal,
	}

	err = factory(&desc)
	if err != nil {
		return model.StepDescriptor{}, errors.Wrapf(ErrConfiguration, "kind %q: %v", kind, err)
	}

	return desc, nil
}

// checkExecutable requires a regular file. Scripts run through an interpreter do not need the executable bit.
func checkExecutable(path string, interpreted bool) error {
	info, err := os.Stat(path)
	if err != nil {
		return errors.Wrapf(ErrConfiguration, "executable: %v", err)
	}
	if !info.Mode().IsRegular() {
		return errors.Wrapf(ErrConfiguration, "executable %s is not a regular file", path)
	}
	if !interpreted && info.Mode().Perm()&0o111 == 0 {
		return errors.Wrapf(ErrConfiguration, "%s is not executable", path)
	}

	return nil
}
