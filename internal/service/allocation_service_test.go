package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/clearbrook/advisory/internal/calendar"
	"github.com/clearbrook/advisory/internal/contract"
	"github.com/clearbrook/advisory/internal/crm"
	"github.com/clearbrook/advisory/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func allocateAt(t *testing.T, f *fixture, dealID string) (*contract.AllocateResponse, error) {
	t.Helper()
	req := contract.NewAllocateRequest(dealID)
	req.Now = &testNow
	return f.allocation.Allocate(context.Background(), req)
}

func TestAllocate_HappyPath_TieBreakByRatio(t *testing.T) {
	// S1: both advisers land on the buffer week 2026-01-26; A already has
	// a Clarify booked there, so the lower-utilised B wins.
	f := newFixture(t)
	a := testutil.NewTestAdviser("a@clearbrook.example", testutil.WithClientLimit(8))
	b := testutil.NewTestAdviser("b@clearbrook.example", testutil.WithClientLimit(8))
	f.addAdviser(a)
	f.addAdviser(b)
	f.addClarify(a.ID, calendar.Date(2026, time.January, 26))
	deal := testutil.NewTestDeal("Series A")
	f.addDeal(deal)

	resp, err := allocateAt(t, f, deal.ID)
	require.NoError(t, err)

	assert.Equal(t, b.ID, resp.AdviserID)
	assert.Equal(t, "b@clearbrook.example", resp.AdviserEmail)
	assert.Equal(t, calendar.Date(2026, time.January, 26), resp.EarliestWeek)
	assert.Equal(t, "2026-W05", resp.EarliestWeekLabel)

	// Deal owner written through to the CRM.
	assert.Equal(t, b.ID, f.crm.ownerByDeal[deal.ID])

	// Allocation record persisted.
	rec, err := f.store.GetAllocationRecord(context.Background(), deal.ID)
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, b.ID, rec.AdviserID)
	assert.Equal(t, calendar.Date(2026, time.January, 26), rec.EarliestWeekAnchor)

	// The runner-up appears in diagnostics with their earliest week.
	require.Len(t, resp.Diagnostics, 1)
	assert.Equal(t, "a@clearbrook.example", resp.Diagnostics[0].Email)

	// Notification fired once.
	require.Len(t, f.notifier.payloads, 1)
	assert.Equal(t, deal.ID, f.notifier.payloads[0].DealID)
}

func TestAllocate_EqualRatios_EmailTieBreak(t *testing.T) {
	f := newFixture(t)
	f.addAdviser(testutil.NewTestAdviser("b@clearbrook.example"))
	f.addAdviser(testutil.NewTestAdviser("a@clearbrook.example"))
	deal := testutil.NewTestDeal("Series A")
	f.addDeal(deal)

	resp, err := allocateAt(t, f, deal.ID)
	require.NoError(t, err)
	assert.Equal(t, "a@clearbrook.example", resp.AdviserEmail)
}

func TestAllocate_EarlierWeekBeatsLowerRatio(t *testing.T) {
	// One adviser is fully closed during the buffer week; the other is
	// half-occupied but available earlier, and the earlier week wins.
	f := newFixture(t)
	busy := testutil.NewTestAdviser("busy@clearbrook.example", testutil.WithClientLimit(8))
	closed := testutil.NewTestAdviser("closed@clearbrook.example", testutil.WithClientLimit(8))
	f.addAdviser(busy)
	f.addAdviser(closed)
	f.addClarify(busy.ID, calendar.Date(2026, time.January, 26))

	closure := testutil.NewTestClosure(
		calendar.Date(2026, time.January, 26), calendar.Date(2026, time.January, 30),
		testutil.WithClosureScope("closed@clearbrook.example"))
	require.NoError(t, f.closures.Create(context.Background(), closure))

	deal := testutil.NewTestDeal("Series A")
	f.addDeal(deal)

	resp, err := allocateAt(t, f, deal.ID)
	require.NoError(t, err)
	assert.Equal(t, "busy@clearbrook.example", resp.AdviserEmail)
	assert.Equal(t, calendar.Date(2026, time.January, 26), resp.EarliestWeek)
}

func TestAllocate_HouseholdTypeNarrowsEligibility(t *testing.T) {
	f := newFixture(t)
	f.addAdviser(testutil.NewTestAdviser("a@clearbrook.example", testutil.WithHouseholds("single")))
	f.addAdviser(testutil.NewTestAdviser("b@clearbrook.example", testutil.WithHouseholds("couple")))
	deal := testutil.NewTestDeal("Series A", testutil.WithHouseholdType("couple"))
	f.addDeal(deal)

	resp, err := allocateAt(t, f, deal.ID)
	require.NoError(t, err)
	assert.Equal(t, "b@clearbrook.example", resp.AdviserEmail)
}

func TestAllocate_ServicePackageFromDealWhenOmitted(t *testing.T) {
	f := newFixture(t)
	f.addAdviser(testutil.NewTestAdviser("a@clearbrook.example", testutil.WithPackages("Series B")))
	deal := testutil.NewTestDeal("Series B")
	f.addDeal(deal)

	resp, err := allocateAt(t, f, deal.ID)
	require.NoError(t, err)
	assert.Equal(t, "Series B", resp.ServicePackage)
}

func TestAllocate_NoEligibleAdvisers(t *testing.T) {
	// S6: nobody supports the package; nothing is written.
	f := newFixture(t)
	f.addAdviser(testutil.NewTestAdviser("a@clearbrook.example", testutil.WithPackages("Series A")))
	deal := testutil.NewTestDeal("Series Z")
	f.addDeal(deal)

	_, err := allocateAt(t, f, deal.ID)
	var allocErr *contract.AllocateError
	require.ErrorAs(t, err, &allocErr)
	assert.Equal(t, contract.ErrNoEligibleAdvisers, allocErr.Code)

	rec, err := f.store.GetAllocationRecord(context.Background(), deal.ID)
	require.NoError(t, err)
	assert.Nil(t, rec)
	assert.Zero(t, f.crm.ownerCalls)
}

func TestAllocate_DealNotFound(t *testing.T) {
	f := newFixture(t)
	f.addAdviser(testutil.NewTestAdviser("a@clearbrook.example"))

	_, err := allocateAt(t, f, "missing-deal")
	var allocErr *contract.AllocateError
	require.ErrorAs(t, err, &allocErr)
	assert.Equal(t, contract.ErrDealNotFound, allocErr.Code)
}

func TestAllocate_EmptyDealID_InvalidInput(t *testing.T) {
	f := newFixture(t)

	_, err := allocateAt(t, f, "")
	var allocErr *contract.AllocateError
	require.ErrorAs(t, err, &allocErr)
	assert.Equal(t, contract.ErrInvalidInput, allocErr.Code)
}

func TestAllocate_NoAvailability_WithDiagnostics(t *testing.T) {
	f := newFixture(t)
	f.addAdviser(testutil.NewTestAdviser("a@clearbrook.example", testutil.WithClientLimit(0)))
	deal := testutil.NewTestDeal("Series A")
	f.addDeal(deal)

	_, err := allocateAt(t, f, deal.ID)
	var allocErr *contract.AllocateError
	require.ErrorAs(t, err, &allocErr)
	assert.Equal(t, contract.ErrNoAvailability, allocErr.Code)
	require.Len(t, allocErr.Diagnostics, 1)
	assert.Equal(t, "a@clearbrook.example", allocErr.Diagnostics[0].Email)

	rec, err := f.store.GetAllocationRecord(context.Background(), deal.ID)
	require.NoError(t, err)
	assert.Nil(t, rec)
}

func TestAllocate_Idempotent_SameAdviserAndRecord(t *testing.T) {
	// T6: repeating the allocation with unchanged inputs picks the same
	// adviser and keeps the same record ID.
	f := newFixture(t)
	f.addAdviser(testutil.NewTestAdviser("a@clearbrook.example"))
	f.addAdviser(testutil.NewTestAdviser("b@clearbrook.example"))
	deal := testutil.NewTestDeal("Series A")
	f.addDeal(deal)

	first, err := allocateAt(t, f, deal.ID)
	require.NoError(t, err)
	second, err := allocateAt(t, f, deal.ID)
	require.NoError(t, err)

	assert.Equal(t, first.AdviserEmail, second.AdviserEmail)
	assert.Equal(t, first.RecordID, second.RecordID)
	assert.Equal(t, first.EarliestWeek, second.EarliestWeek)
}

func TestAllocate_CrmPermanentRejection_NoRecord(t *testing.T) {
	f := newFixture(t)
	f.addAdviser(testutil.NewTestAdviser("a@clearbrook.example"))
	deal := testutil.NewTestDeal("Series A")
	f.addDeal(deal)
	f.crm.setOwnerErr = crm.ErrPermanent

	_, err := allocateAt(t, f, deal.ID)
	var allocErr *contract.AllocateError
	require.ErrorAs(t, err, &allocErr)
	assert.Equal(t, contract.ErrCrmUpdateFailed, allocErr.Code)

	rec, err := f.store.GetAllocationRecord(context.Background(), deal.ID)
	require.NoError(t, err)
	assert.Nil(t, rec, "no record after a failed owner update")
}

func TestAllocate_CrmTransientExhausted_NoRecord(t *testing.T) {
	f := newFixture(t)
	f.addAdviser(testutil.NewTestAdviser("a@clearbrook.example"))
	deal := testutil.NewTestDeal("Series A")
	f.addDeal(deal)
	f.crm.setOwnerErr = errors.Join(crm.ErrRetryExhausted, crm.ErrTransient)

	_, err := allocateAt(t, f, deal.ID)
	var allocErr *contract.AllocateError
	require.ErrorAs(t, err, &allocErr)
	assert.Equal(t, contract.ErrCrmUnavailable, allocErr.Code)
}

func TestAllocate_NotifierFailureDoesNotAbort(t *testing.T) {
	f := newFixture(t)
	f.addAdviser(testutil.NewTestAdviser("a@clearbrook.example"))
	deal := testutil.NewTestDeal("Series A")
	f.addDeal(deal)
	f.notifier.err = errors.New("webhook down")

	resp, err := allocateAt(t, f, deal.ID)
	require.NoError(t, err)
	assert.NotEmpty(t, resp.RecordID)
}

func TestAllocate_BacklogPushesAllocationOut(t *testing.T) {
	// S3 end to end: six queued deals move the earliest week to 2026-02-02.
	f := newFixture(t)
	adviser := testutil.NewTestAdviser("d@clearbrook.example", testutil.WithClientLimit(8))
	f.addAdviser(adviser)
	for i := 0; i < 6; i++ {
		f.crm.openDeals[adviser.ID] = append(f.crm.openDeals[adviser.ID],
			testutil.NewTestDeal("Series A",
				testutil.WithAgreementStart(calendar.Date(2026, time.January, 5))))
	}
	deal := testutil.NewTestDeal("Series A")
	f.addDeal(deal)

	resp, err := allocateAt(t, f, deal.ID)
	require.NoError(t, err)
	assert.Equal(t, calendar.Date(2026, time.February, 2), resp.EarliestWeek)
	assert.Equal(t, "2026-W06", resp.EarliestWeekLabel)
}
