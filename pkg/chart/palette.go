package chart

// Palette holds the marker colours; vehicle i uses Palette[i % len(Palette)].
var Palette = []string{
	"#FF0000", "#00FF00", "#0000FF", "#FFFF00", "#FF00FF",
	"#00FFFF", "#FF6B6B", "#4ECDC4", "#45B7D1", "#FFA07A",
}

// ColorFor returns the marker colour of a vehicle.
func ColorFor(vehicle int) string {
	return Palette[vehicle%len(Palette)]
}
