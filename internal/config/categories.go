package config

// CategoryWeights orders command categories in help output. Unknown
// categories sort last.
var CategoryWeights = map[string]int{
	"🕯️ Information":   0,
	"🍺 Tavern":         10,
	"💰 Economy":        20,
	"🐾 Companions":     30,
	"⚒️ Professions":   40,
	"📜 Research":       50,
	"🛠️ Administration": 60,
}

const unknownCategoryWeight = 1000

// CategoryWeight returns the sort weight of category.
func CategoryWeight(category string) int {
	if w, ok := CategoryWeights[category]; ok {
		return w
	}
	return unknownCategoryWeight
}
