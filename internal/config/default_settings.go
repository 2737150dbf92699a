package config

import "github.com/tauraamui/visaged/pkg/configdef"

type defaultSettingKey uint

const (
	CAMERA    defaultSettingKey = 0x0
	DETECTION defaultSettingKey = 0x1
)

var defaultSettings = map[defaultSettingKey]interface{}{
	CAMERA: configdef.Camera{
		Title:       "default",
		Device:      0,
		FrameWidth:  640,
		FrameHeight: 480,
		// three validation reads before the device is declared unusable
		WarmupAttempts: 3,
		// release any stale handles left on indices 0-4 before opening
		CleanupIndexSpan: 5,
	},
	DETECTION: configdef.Detection{
		CascadePath:  "haarcascade_frontalface_default.xml",
		CascadeURL:   "https://raw.githubusercontent.com/opencv/opencv/master/data/haarcascades/haarcascade_frontalface_default.xml",
		ScaleFactor:  1.1,
		MinNeighbors: 5,
		BoxColor:     "#00FF00",
	},
}
