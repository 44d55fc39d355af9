package forecast

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/spacesedan/moodscope/internal/insights"
	"github.com/spacesedan/moodscope/internal/models"
	"gonum.org/v1/gonum/stat"
)

const (
	DateLayout = "2006-01-02"
	Horizon    = 7
	// weekly residuals are only trusted once a full week is observed
	minSeasonalPoints = 7
)

var ErrInsufficientData = errors.New("not enough daily points to forecast")

// Forecaster predicts future daily mood from past daily averages.
type Forecaster interface {
	Forecast(points []models.DailyMoodPoint) ([]models.ForecastPoint, error)
}

// LinearForecaster fits a least-squares trend over the day index and adds
// the mean residual of each weekday.
type LinearForecaster struct {
	Horizon int
}

func NewLinearForecaster() *LinearForecaster {
	return &LinearForecaster{Horizon: Horizon}
}

func (f *LinearForecaster) Forecast(points []models.DailyMoodPoint) ([]models.ForecastPoint, error) {
	if len(points) < insights.MinForecastPoints {
		return nil, ErrInsufficientData
	}
	horizon := f.Horizon
	if horizon <= 0 {
		horizon = Horizon
	}

	dates := make([]time.Time, len(points))
	for i, p := range points {
		d, err := time.Parse(DateLayout, p.Date)
		if err != nil {
			return nil, fmt.Errorf("[Forecaster] invalid date %q: %w", p.Date, err)
		}
		dates[i] = d
	}

	origin := dates[0]
	xs := make([]float64, len(points))
	ys := make([]float64, len(points))
	for i, p := range points {
		xs[i] = dates[i].Sub(origin).Hours() / 24
		ys[i] = p.AvgCompound
	}

	alpha, beta := fitTrend(xs, ys)

	var seasonal [7]float64
	if len(points) >= minSeasonalPoints {
		var sums [7]float64
		var counts [7]int
		for i := range xs {
			wd := dates[i].Weekday()
			sums[wd] += ys[i] - (alpha + beta*xs[i])
			counts[wd]++
		}
		for wd := range seasonal {
			if counts[wd] > 0 {
				seasonal[wd] = sums[wd] / float64(counts[wd])
			}
		}
	}

	last := dates[len(dates)-1]
	out := make([]models.ForecastPoint, 0, horizon)
	for h := 1; h <= horizon; h++ {
		d := last.AddDate(0, 0, h)
		x := d.Sub(origin).Hours() / 24
		y := alpha + beta*x + seasonal[d.Weekday()]
		out = append(out, models.ForecastPoint{
			Date:          d.Format(DateLayout),
			PredictedMood: round3(clamp(y, -1, 1)),
		})
	}
	return out, nil
}

// fitTrend falls back to a flat line when every x is the same.
func fitTrend(xs, ys []float64) (alpha, beta float64) {
	if stat.Variance(xs, nil) == 0 {
		return stat.Mean(ys, nil), 0
	}
	return stat.LinearRegression(xs, ys, nil, false)
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}

// ForecastMood runs the forecaster and reconciles its output with the most
// recent actual values. Too little history yields the insufficient-data
// payload rather than an error.
func ForecastMood(f Forecaster, daily []models.DailyMoodPoint) (models.MoodForecast, error) {
	if len(daily) < insights.MinForecastPoints {
		return insights.InsufficientForecast(), nil
	}
	pred, err := f.Forecast(daily)
	if errors.Is(err, ErrInsufficientData) || (err == nil && len(pred) == 0) {
		return insights.InsufficientForecast(), nil
	}
	if err != nil {
		return insights.InsufficientForecast(), err
	}

	actual := make([]float64, len(daily))
	for i, p := range daily {
		actual[i] = p.AvgCompound
	}
	return insights.ReconcileForecast(actual, pred), nil
}
