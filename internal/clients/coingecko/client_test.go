package coingecko

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetAllCoinsPaginates(t *testing.T) {
	var pages []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/coins/markets", r.URL.Path)
		require.Equal(t, "usd", r.URL.Query().Get("vs_currency"))
		require.Equal(t, "market_cap_desc", r.URL.Query().Get("order"))

		page := r.URL.Query().Get("page")
		pages = append(pages, page)
		perPage, _ := strconv.Atoi(r.URL.Query().Get("per_page"))

		entries := make([]marketEntry, perPage)
		offset := (mustAtoi(page) - 1) * marketsPageSize
		for i := range entries {
			entries[i] = marketEntry{
				ID:           fmt.Sprintf("coin-%d", offset+i),
				Symbol:       fmt.Sprintf("c%d", offset+i),
				Name:         fmt.Sprintf("Coin %d", offset+i),
				CurrentPrice: float64(offset + i + 1),
			}
		}
		json.NewEncoder(w).Encode(entries)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "", nil, zerolog.Nop())
	coins, err := c.GetAllCoins(context.Background(), 300)
	require.NoError(t, err)

	assert.Len(t, coins, 300)
	assert.Equal(t, []string{"1", "2"}, pages)
	assert.Equal(t, "C0", coins[0].Symbol)
	assert.Equal(t, 1.0, coins[0].Price)
}

func mustAtoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}

func TestGetAllCoinsFirstSymbolOccurrenceWins(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode([]marketEntry{
			{ID: "bitcoin", Symbol: "btc", Name: "Bitcoin", CurrentPrice: 60000},
			{ID: "fake-bitcoin", Symbol: "btc", Name: "Fake Bitcoin", CurrentPrice: 0.01},
		})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "", nil, zerolog.Nop())
	_, err := c.GetAllCoins(context.Background(), 2)
	require.NoError(t, err)

	assert.Equal(t, "bitcoin", c.coinID("BTC"))
}

func TestGetHistoricalDataMergesVolumesAndTrims(t *testing.T) {
	base := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/coins/btc/ohlc":
			// Ten daily rows, more than the requested window; the client
			// trims to the newest seven
			require.Equal(t, "7", r.URL.Query().Get("days"))
			rows := make([][5]float64, 10)
			for i := range rows {
				ts := float64(base.AddDate(0, 0, i).UnixMilli())
				price := 100 + float64(i)
				rows[i] = [5]float64{ts, price - 1, price + 2, price - 2, price}
			}
			json.NewEncoder(w).Encode(rows)
		case "/coins/btc/market_chart":
			var volumes [][2]float64
			for i := 0; i < 10; i++ {
				ts := float64(base.AddDate(0, 0, i).UnixMilli())
				volumes = append(volumes, [2]float64{ts, float64(1000 * (i + 1))})
			}
			json.NewEncoder(w).Encode(map[string]any{"total_volumes": volumes})
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "", nil, zerolog.Nop())
	candles, err := c.GetHistoricalData(context.Background(), "BTC", 7)
	require.NoError(t, err)

	// Trimmed to the requested window, most recent kept
	require.Len(t, candles, 7)
	last := candles[len(candles)-1]
	assert.Equal(t, 109.0, last.Close)
	assert.Equal(t, 10000.0, last.Volume)

	// Oldest first
	assert.True(t, candles[0].Timestamp.Before(last.Timestamp))
}

func TestGetHistoricalDataCollapsesSubDailyRows(t *testing.T) {
	base := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/coins/btc/ohlc":
			// Four 6h rows within a single UTC day
			rows := [][5]float64{
				{float64(base.UnixMilli()), 100, 101, 99, 100},
				{float64(base.Add(6 * time.Hour).UnixMilli()), 100, 105, 98, 103},
				{float64(base.Add(12 * time.Hour).UnixMilli()), 103, 104, 95, 96},
				{float64(base.Add(18 * time.Hour).UnixMilli()), 96, 102, 96, 101},
			}
			json.NewEncoder(w).Encode(rows)
		case "/coins/btc/market_chart":
			json.NewEncoder(w).Encode(map[string]any{"total_volumes": [][2]float64{}})
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "", nil, zerolog.Nop())
	candles, err := c.GetHistoricalData(context.Background(), "BTC", 7)
	require.NoError(t, err)

	require.Len(t, candles, 1)
	assert.Equal(t, 100.0, candles[0].Open)
	assert.Equal(t, 105.0, candles[0].High)
	assert.Equal(t, 95.0, candles[0].Low)
	assert.Equal(t, 101.0, candles[0].Close)
}

func TestGetHistoricalDataSurvivesVolumeFailure(t *testing.T) {
	base := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/coins/btc/ohlc":
			rows := [][5]float64{{float64(base.UnixMilli()), 100, 101, 99, 100}}
			json.NewEncoder(w).Encode(rows)
		default:
			w.WriteHeader(http.StatusInternalServerError)
		}
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "", nil, zerolog.Nop())
	candles, err := c.GetHistoricalData(context.Background(), "BTC", 7)
	require.NoError(t, err)

	require.Len(t, candles, 1)
	assert.Zero(t, candles[0].Volume)
}

func TestSnapWindow(t *testing.T) {
	assert.Equal(t, 7, snapWindow(5))
	assert.Equal(t, 90, snapWindow(90))
	assert.Equal(t, 180, snapWindow(91))
	assert.Equal(t, 365, snapWindow(365))
	assert.Equal(t, 365, snapWindow(900))
}

func TestGetHistoricalDataRateLimited(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "", nil, zerolog.Nop())
	_, err := c.GetHistoricalData(context.Background(), "BTC", 7)
	assert.ErrorContains(t, err, "429")
}
