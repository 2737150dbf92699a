package config

import (
	"encoding/json"

	"github.com/pkg/errors"
	"github.com/spf13/afero"
	"github.com/tauraamui/visaged/pkg/configdef"
	"github.com/tauraamui/visaged/pkg/log"
)

func Load() (configdef.Values, error) {
	return load()
}

func load() (configdef.Values, error) {
	var values configdef.Values

	configPath, err := resolveConfigPath()
	if err != nil {
		return configdef.Values{}, err
	}

	log.Info("Resolved config file location: %s", configPath)
	file, err := readConfigFile(configPath)
	if err != nil {
		return configdef.Values{}, err
	}

	if err := unmarshal(file, &values); err != nil {
		return configdef.Values{}, err
	}

	loadDefaultsForZeroValues(&values)

	if err = values.RunValidate(); err != nil {
		return configdef.Values{}, err
	}

	return values, nil
}

// loadDefaultsForZeroValues backfills fields the config file omits so
// that a sparse file still passes range validation.
func loadDefaultsForZeroValues(values *configdef.Values) {
	defaultCamera := defaultSettings[CAMERA].(configdef.Camera)
	defaultDetection := defaultSettings[DETECTION].(configdef.Detection)

	cam := &values.Camera
	if len(cam.Title) == 0 {
		cam.Title = defaultCamera.Title
	}
	if cam.FrameWidth == 0 {
		cam.FrameWidth = defaultCamera.FrameWidth
	}
	if cam.FrameHeight == 0 {
		cam.FrameHeight = defaultCamera.FrameHeight
	}
	if cam.WarmupAttempts == 0 {
		cam.WarmupAttempts = defaultCamera.WarmupAttempts
	}
	// CleanupIndexSpan has no backfill: a zero span is how a config
	// disables the pre-open cleanup, and a plain JSON number cannot
	// distinguish an omitted field from an explicit 0. The created
	// default config writes span 5; a sparse config runs without the
	// cleanup.

	det := &values.Detection
	if len(det.CascadePath) == 0 {
		det.CascadePath = defaultDetection.CascadePath
	}
	if len(det.CascadeURL) == 0 {
		det.CascadeURL = defaultDetection.CascadeURL
	}
	if det.ScaleFactor == 0 {
		det.ScaleFactor = defaultDetection.ScaleFactor
	}
	if det.MinNeighbors == 0 {
		det.MinNeighbors = defaultDetection.MinNeighbors
	}
	if len(det.BoxColor) == 0 {
		det.BoxColor = defaultDetection.BoxColor
	}
}

var readConfigFile = func(path string) ([]byte, error) {
	return afero.ReadFile(fs, path)
}

func unmarshal(content []byte, values *configdef.Values) error {
	err := json.Unmarshal(content, values)
	if err != nil {
		return errors.Errorf("parsing configuration error: %v", err)
	}
	return nil
}
