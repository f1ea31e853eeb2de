package coordinator

import (
	"fmt"
	"strings"
	"time"

	"github.com/ValentinKolb/dRide/lib/ride/model"
	"github.com/VictoriaMetrics/metrics"
)

var bookDuration = metrics.NewHistogram("ride_book_duration_seconds")

// recordBooking counts a finished BookRide call by its outcome
func recordBooking(start time.Time, err error) {
	result := "ok"
	if err != nil {
		result = strings.ToLower(model.KindOf(err).String())
	}
	metrics.GetOrCreateCounter(fmt.Sprintf(`ride_bookings_total{result=%q}`, result)).Inc()
	bookDuration.UpdateDuration(start)
}

// recordEnd counts a finished EndRide call by its outcome
func recordEnd(err error) {
	result := "ok"
	if err != nil {
		result = strings.ToLower(model.KindOf(err).String())
	}
	metrics.GetOrCreateCounter(fmt.Sprintf(`ride_ends_total{result=%q}`, result)).Inc()
}
