// Package routing schedules one day at a time: a greedy nearest-neighbor walk
// over the POI pool under opening windows, travel time and the day's hour cap.
package routing

import (
	"time"

	"go.uber.org/zap"

	"github.com/FACorreiaa/loci-planner/internal/app/models"
)

// Stop is one scheduled visit. Travel is the transit time from the previous
// stop (or the day's start point for the first stop).
type Stop struct {
	POI    models.POI
	Start  time.Time
	End    time.Time
	Travel time.Duration
}

type Router struct {
	logger    *zap.Logger
	estimator TravelEstimator
}

func NewRouter(estimator TravelEstimator, logger *zap.Logger) *Router {
	return &Router{logger: logger, estimator: estimator}
}

// ShiftForDay translates a POI's day-0 window forward by d calendar days.
// Transportation windows are fixed by the carrier and never move.
func ShiftForDay(p models.POI, d int) models.POI {
	if d == 0 || p.Class == models.ClassTransportation {
		return p
	}
	p.OpenAt = p.OpenAt.AddDate(0, 0, d)
	p.CloseAt = p.CloseAt.AddDate(0, 0, d)
	return p
}

// ScheduleDay walks the pool greedily from startPoint: at each step it takes
// the feasible POI with the smallest travel time, breaking ties by earlier
// opening then lexicographic id. It never fails; an empty day is a valid
// result. The caller clips the output to the pace's stop count.
func (r *Router) ScheduleDay(startPoint models.GeoPoint, pois []models.POI, dayStart, dayEnd time.Time) []Stop {
	cursorLoc := startPoint
	cursorTime := dayStart

	remaining := make([]models.POI, len(pois))
	copy(remaining, pois)

	var result []Stop
	for len(remaining) > 0 {
		bestIdx := -1
		var bestTravel time.Duration
		var bestStart time.Time

		for i, p := range remaining {
			travel := r.estimator.TravelTime(cursorLoc, p.Point())
			earliest := cursorTime.Add(travel)
			if p.OpenAt.After(earliest) {
				earliest = p.OpenAt
			}
			end := earliest.Add(p.Duration)
			if end.After(p.CloseAt) {
				continue
			}
			// Carrier-fixed windows are exempt from the day's hour cap.
			if p.Class != models.ClassTransportation && end.After(dayEnd) {
				continue
			}

			if bestIdx < 0 || lessCandidate(travel, p, bestTravel, remaining[bestIdx]) {
				bestIdx = i
				bestTravel = travel
				bestStart = earliest
			}
		}
		if bestIdx < 0 {
			break
		}

		chosen := remaining[bestIdx]
		result = append(result, Stop{
			POI:    chosen,
			Start:  bestStart,
			End:    bestStart.Add(chosen.Duration),
			Travel: bestTravel,
		})
		cursorTime = bestStart.Add(chosen.Duration)
		cursorLoc = chosen.Point()
		remaining = append(remaining[:bestIdx], remaining[bestIdx+1:]...)
	}
	return result
}

// lessCandidate orders feasible candidates: travel time, then opening time,
// then id. The final key makes scheduling deterministic for equal inputs.
func lessCandidate(travel time.Duration, p models.POI, bestTravel time.Duration, best models.POI) bool {
	if travel != bestTravel {
		return travel < bestTravel
	}
	if !p.OpenAt.Equal(best.OpenAt) {
		return p.OpenAt.Before(best.OpenAt)
	}
	return p.ID.String() < best.ID.String()
}
