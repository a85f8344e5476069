package postgresql

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfig_DSN(t *testing.T) {
	tests := []struct {
		name   string
		config Config
		want   string
	}{
		{
			name: "defaults sslmode and connect timeout",
			config: Config{
				Host:     "localhost",
				Port:     5432,
				User:     "booking",
				Password: "secret",
				Database: "booking",
			},
			want: "host='localhost' port=5432 user='booking' password='secret' dbname='booking' sslmode=disable connect_timeout=5",
		},
		{
			name: "application name and explicit settings",
			config: Config{
				Host:            "db.internal",
				Port:            6432,
				User:            "booking",
				Password:        "secret",
				Database:        "booking",
				SSLMode:         "require",
				ConnectTimeout:  10 * time.Second,
				ApplicationName: "api-service",
			},
			want: "host='db.internal' port=6432 user='booking' password='secret' dbname='booking' sslmode=require connect_timeout=10 application_name='api-service'",
		},
		{
			name: "sub-second timeout rounds up to one second",
			config: Config{
				Host:           "localhost",
				Port:           5432,
				User:           "booking",
				Database:       "booking",
				ConnectTimeout: 300 * time.Millisecond,
			},
			want: "host='localhost' port=5432 user='booking' password='' dbname='booking' sslmode=disable connect_timeout=1",
		},
		{
			name: "quotes and backslashes are escaped",
			config: Config{
				Host:     "localhost",
				Port:     5432,
				User:     "booking",
				Password: `it's a\b c`,
				Database: "booking",
			},
			want: `host='localhost' port=5432 user='booking' password='it\'s a\\b c' dbname='booking' sslmode=disable connect_timeout=5`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.config.DSN())
		})
	}
}

func TestClient_HealthCheck(t *testing.T) {
	schemaQuery := regexp.QuoteMeta(`SELECT to_regclass('public.jobs') IS NOT NULL`)

	tests := []struct {
		name    string
		setup   func(mock sqlmock.Sqlmock)
		wantErr error
		errText string
	}{
		{
			name: "migrated schema is healthy",
			setup: func(mock sqlmock.Sqlmock) {
				mock.ExpectPing()
				mock.ExpectQuery(schemaQuery).
					WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
			},
		},
		{
			name: "missing jobs table",
			setup: func(mock sqlmock.Sqlmock) {
				mock.ExpectPing()
				mock.ExpectQuery(schemaQuery).
					WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
			},
			wantErr: ErrSchemaMissing,
		},
		{
			name: "ping failure",
			setup: func(mock sqlmock.Sqlmock) {
				mock.ExpectPing().WillReturnError(errors.New("connection refused"))
			},
			errText: "database health check failed",
		},
		{
			name: "query failure",
			setup: func(mock sqlmock.Sqlmock) {
				mock.ExpectPing()
				mock.ExpectQuery(schemaQuery).WillReturnError(errors.New("permission denied"))
			},
			errText: "database query health check failed",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
			require.NoError(t, err)
			defer db.Close()

			client := &Client{
				db:     sqlx.NewDb(db, "sqlmock"),
				logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
			}
			tt.setup(mock)

			err = client.HealthCheck(context.Background())
			switch {
			case tt.wantErr != nil:
				assert.ErrorIs(t, err, tt.wantErr)
			case tt.errText != "":
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errText)
			default:
				assert.NoError(t, err)
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestClient_CloseNilDB(t *testing.T) {
	client := &Client{logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
	assert.NoError(t, client.Close())
}
