package timeline

import "github.com/penwyp/go-tflog-viewer/internal/core/model"

// FallbackColor is used for levels without a dedicated colour
const FallbackColor = "#666"

// ReadOpacity is applied to bars of records already marked read
const ReadOpacity = 0.5

var levelColors = map[model.Level]string{
	model.LevelError:   "#d32f2f",
	model.LevelWarning: "#f57c00",
	model.LevelInfo:    "#388e3c",
	model.LevelDebug:   "#1976d2",
}

// ColorForLevel returns the bar colour of a level
func ColorForLevel(level model.Level) string {
	if c, ok := levelColors[level]; ok {
		return c
	}
	return FallbackColor
}

// OpacityFor returns the rendering opacity of a record
func OpacityFor(r model.LogRecord) float64 {
	if r.IsRead() {
		return ReadOpacity
	}
	return 1
}
