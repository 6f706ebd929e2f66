package sqlc

import (
	"context"
	"net"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/sqlc-dev/pqtype"
)

func testInet() pqtype.Inet {
	return pqtype.Inet{
		IPNet: net.IPNet{IP: net.IPv4(10, 0, 0, 1), Mask: net.CIDRMask(32, 32)},
		Valid: true,
	}
}

func TestIncrementCounters(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	analytics := NewDbManager(New(db)).Analytics
	inet := testInet()

	tests := []struct {
		name    string
		pattern string
		call    func(context.Context) error
	}{
		{
			name:    "matches created",
			pattern: `INSERT INTO game_server_analytics \(server_ip, matches_created\)`,
			call:    func(ctx context.Context) error { return analytics.IncrementMatchesCreatedCount(ctx, inet) },
		},
		{
			name:    "shots fired",
			pattern: `INSERT INTO game_server_analytics \(server_ip, shots_fired\)`,
			call:    func(ctx context.Context) error { return analytics.IncrementShotsFiredCount(ctx, inet) },
		},
		{
			name:    "timeout evictions",
			pattern: `INSERT INTO game_server_analytics \(server_ip, timeout_evictions\)`,
			call:    func(ctx context.Context) error { return analytics.IncrementTimeoutEvictionsCount(ctx, inet) },
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			mock.ExpectExec(test.pattern).
				WithArgs(inet).
				WillReturnResult(sqlmock.NewResult(0, 1))

			ctx, cancel := context.WithTimeout(context.Background(), QuerierCtxTimeout)
			defer cancel()
			if err := test.call(ctx); err != nil {
				t.Fatal(err)
			}
		})
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestGetMatchesCreatedCount(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	analytics := NewDbManager(New(db)).Analytics
	inet := testInet()

	mock.ExpectQuery(`SELECT matches_created FROM game_server_analytics WHERE server_ip = \$1`).
		WithArgs(inet).
		WillReturnRows(sqlmock.NewRows([]string{"matches_created"}).AddRow(3))

	ctx, cancel := context.WithTimeout(context.Background(), QuerierCtxTimeout)
	defer cancel()

	count, err := analytics.GetMatchesCreatedCount(ctx, inet)
	if err != nil {
		t.Fatal(err)
	}
	if count != 3 {
		t.Fatalf("expected 3 matches created, got %d", count)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}
