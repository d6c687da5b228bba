package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRecordHTTPRequest(t *testing.T) {
	HTTPRequestsTotal.Reset()
	HTTPRequestDuration.Reset()

	RecordHTTPRequest("GET", "/bets", "200", 0.5)

	count := testutil.ToFloat64(HTTPRequestsTotal.WithLabelValues("GET", "/bets", "200"))
	assert.Equal(t, float64(1), count)
}

func TestRecordHTTPRequestMultiple(t *testing.T) {
	HTTPRequestsTotal.Reset()

	RecordHTTPRequest("POST", "/auth/login", "200", 0.1)
	RecordHTTPRequest("POST", "/auth/login", "200", 0.2)
	RecordHTTPRequest("POST", "/auth/login", "401", 0.05)

	successCount := testutil.ToFloat64(HTTPRequestsTotal.WithLabelValues("POST", "/auth/login", "200"))
	failCount := testutil.ToFloat64(HTTPRequestsTotal.WithLabelValues("POST", "/auth/login", "401"))

	assert.Equal(t, float64(2), successCount)
	assert.Equal(t, float64(1), failCount)
}

func TestRecordBetCreated(t *testing.T) {
	BetsCreatedTotal.Reset()

	RecordBetCreated("public")
	RecordBetCreated("public")
	RecordBetCreated("friends_only")

	publicCount := testutil.ToFloat64(BetsCreatedTotal.WithLabelValues("public"))
	friendsCount := testutil.ToFloat64(BetsCreatedTotal.WithLabelValues("friends_only"))

	assert.Equal(t, float64(2), publicCount)
	assert.Equal(t, float64(1), friendsCount)
}

func TestRecordBetSettled(t *testing.T) {
	BetsSettledTotal.Reset()

	RecordBetSettled("won")
	RecordBetSettled("refund")
	RecordBetSettled("refund")

	wonCount := testutil.ToFloat64(BetsSettledTotal.WithLabelValues("won"))
	refundCount := testutil.ToFloat64(BetsSettledTotal.WithLabelValues("refund"))

	assert.Equal(t, float64(1), wonCount)
	assert.Equal(t, float64(2), refundCount)
}

func TestRecordPointsMoved(t *testing.T) {
	PointsMovedTotal.Reset()

	RecordPointsMoved("stake", 100)
	RecordPointsMoved("stake", -50)
	RecordPointsMoved("winnings", 300)

	stakeTotal := testutil.ToFloat64(PointsMovedTotal.WithLabelValues("stake"))
	winningsTotal := testutil.ToFloat64(PointsMovedTotal.WithLabelValues("winnings"))

	// negative amounts count by absolute value
	assert.Equal(t, float64(150), stakeTotal)
	assert.Equal(t, float64(300), winningsTotal)
}

func TestRecordNotification(t *testing.T) {
	NotificationsTotal.Reset()

	RecordNotification("bet_won", "sent")
	RecordNotification("bet_won", "failed")
	RecordNotification("bet_invitation", "sent")

	wonSent := testutil.ToFloat64(NotificationsTotal.WithLabelValues("bet_won", "sent"))
	wonFailed := testutil.ToFloat64(NotificationsTotal.WithLabelValues("bet_won", "failed"))
	inviteSent := testutil.ToFloat64(NotificationsTotal.WithLabelValues("bet_invitation", "sent"))

	assert.Equal(t, float64(1), wonSent)
	assert.Equal(t, float64(1), wonFailed)
	assert.Equal(t, float64(1), inviteSent)
}

func TestNotificationQueueLength(t *testing.T) {
	NotificationQueueLength.Set(10)
	assert.Equal(t, float64(10), testutil.ToFloat64(NotificationQueueLength))

	NotificationQueueLength.Set(0)
	assert.Equal(t, float64(0), testutil.ToFloat64(NotificationQueueLength))
}

func TestCounters(t *testing.T) {
	deletedBefore := testutil.ToFloat64(BetsDeletedTotal)
	racesBefore := testutil.ToFloat64(SettlementRacesTotal)
	refundFailsBefore := testutil.ToFloat64(RefundFailuresTotal)
	sweepsBefore := testutil.ToFloat64(SweepRunsTotal)

	RecordBetDeleted()
	RecordSettlementRace()
	RecordSettlementRace()
	RecordRefundFailure()
	RecordSweepRun()

	assert.Equal(t, deletedBefore+1, testutil.ToFloat64(BetsDeletedTotal))
	assert.Equal(t, racesBefore+2, testutil.ToFloat64(SettlementRacesTotal))
	assert.Equal(t, refundFailsBefore+1, testutil.ToFloat64(RefundFailuresTotal))
	assert.Equal(t, sweepsBefore+1, testutil.ToFloat64(SweepRunsTotal))
}
