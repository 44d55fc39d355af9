package insights

import "github.com/spacesedan/moodscope/internal/models"

const (
	// MinForecastPoints is the fewest daily points worth forecasting.
	MinForecastPoints = 3
	recentWindow      = 7

	beatForecastDiff = 0.2
	balancedDiff     = -0.1

	MessageInsufficientData = "Not enough data to forecast yet."
	MessageBeatForecast     = "You're doing great, keep it up!"
	MessageStayingBalanced  = "You're maintaining your emotional balance."
	MessageSupportive       = "This week seems tough, we're here to support you 💛"
)

// InsufficientForecast is returned when there is too little history.
func InsufficientForecast() models.MoodForecast {
	return models.MoodForecast{
		Forecast: []models.ForecastPoint{},
		Message:  MessageInsufficientData,
	}
}

// ReconcileForecast compares the mean of the last seven actual daily
// compounds with the mean of the predicted values and picks a badge.
func ReconcileForecast(actual []float64, forecast []models.ForecastPoint) models.MoodForecast {
	predicted := make([]float64, 0, len(forecast))
	for _, p := range forecast {
		predicted = append(predicted, p.PredictedMood)
	}

	diff := mean(tail(actual, recentWindow)) - mean(tail(predicted, recentWindow))
	badge, message := classifyForecastDiff(diff)

	return models.MoodForecast{
		Forecast: forecast,
		Badge:    badge,
		Message:  message,
	}
}

func classifyForecastDiff(diff float64) (*models.ForecastBadge, string) {
	var b models.ForecastBadge
	switch {
	case diff >= beatForecastDiff:
		b = models.BadgeBeatForecast
		return &b, MessageBeatForecast
	case diff >= balancedDiff:
		b = models.BadgeStayingBalanced
		return &b, MessageStayingBalanced
	default:
		return nil, MessageSupportive
	}
}

func tail(xs []float64, n int) []float64 {
	if len(xs) <= n {
		return xs
	}
	return xs[len(xs)-n:]
}

func mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	var sum float64
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}
