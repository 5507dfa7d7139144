package httptransport

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/suite"

	"spectra/internal/mark"
	marksvc "spectra/internal/mark/service"
	"spectra/internal/mark/store/memory"
	"spectra/internal/platform/metrics"
	reputationsvc "spectra/internal/reputation/service"
	"spectra/pkg/marktypes"
)

// nopEmitter satisfies the outcome port without an outbox.
type nopEmitter struct{}

func (nopEmitter) EmitOutcome(context.Context, bool, mark.Request, *mark.UpsertResult, error) {}

type fakeHealth struct {
	err error
}

func (f fakeHealth) Health(context.Context) error { return f.err }

type HTTPSuite struct {
	suite.Suite
	store  *memory.Store
	router http.Handler
}

func (s *HTTPSuite) SetupTest() {
	s.router = s.buildRouter("", nil)
}

func (s *HTTPSuite) buildRouter(signingKey string, health map[string]HealthChecker) http.Handler {
	s.store = memory.New()
	logger := slog.New(slog.DiscardHandler)
	m := metrics.New(prometheus.NewRegistry())
	marks := marksvc.New(false, s.store, nopEmitter{}, logger, m)
	reputation := reputationsvc.New(false, s.store, logger, m)
	handler := NewHandler(marks, reputation, health, logger, m)
	return NewRouter(handler, signingKey)
}

func TestHTTPSuite(t *testing.T) {
	suite.Run(t, new(HTTPSuite))
}

func (s *HTTPSuite) do(method, target, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func (s *HTTPSuite) upsert(from, to string, value bool) {
	_, err := s.store.Upsert(context.Background(), false, mark.Request{
		FromParticipantID: from,
		ToParticipantID:   to,
		Value:             value,
		Type:              marktypes.OffchainRelation,
	})
	s.Require().NoError(err)
}

// TestProcessMark verifies the write endpoint.
func (s *HTTPSuite) TestProcessMark() {
	s.Run("accepts a valid request", func() {
		rec := s.do(http.MethodPost, "/marks",
			`{"fromParticipantId":"u1","toParticipantId":"u2","markType":"RelationMark","value":true}`)
		s.Require().Equal(http.StatusOK, rec.Code)

		var resp struct {
			Processed bool `json:"processed"`
		}
		s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &resp))
		s.True(resp.Processed)
	})

	s.Run("rejects malformed JSON", func() {
		rec := s.do(http.MethodPost, "/marks", `{`)
		s.Equal(http.StatusBadRequest, rec.Code)
	})

	s.Run("rejects missing participants", func() {
		rec := s.do(http.MethodPost, "/marks", `{"markType":"RelationMark","value":true}`)
		s.Equal(http.StatusBadRequest, rec.Code)
	})

	s.Run("rejects missing value", func() {
		rec := s.do(http.MethodPost, "/marks",
			`{"fromParticipantId":"u1","toParticipantId":"u2","markType":"RelationMark"}`)
		s.Equal(http.StatusBadRequest, rec.Code)
	})

	s.Run("rejects a mark type from the other namespace", func() {
		rec := s.do(http.MethodPost, "/marks",
			`{"fromParticipantId":"u1","toParticipantId":"u2","markType":"TrustMark","value":true}`)
		s.Equal(http.StatusBadRequest, rec.Code)
	})
}

// TestReputationContext verifies the composed query endpoint.
func (s *HTTPSuite) TestReputationContext() {
	s.upsert("u1", "u2", true)
	s.upsert("u1", "u3", true)
	s.upsert("u3", "u2", false)

	rec := s.do(http.MethodGet,
		"/reputation/context?fromParticipantId=u1&toParticipantId=u2&markType=RelationMark", "")
	s.Require().Equal(http.StatusOK, rec.Code)

	var resp struct {
		FromTo             *bool `json:"fromTo"`
		ToFrom             *bool `json:"toFrom"`
		CommonParticipants []struct {
			IntermediateID   string `json:"intermediateId"`
			IntermediateToTo *bool  `json:"intermediateToTo"`
		} `json:"commonParticipants"`
	}
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &resp))
	s.Require().NotNil(resp.FromTo)
	s.True(*resp.FromTo)
	s.Nil(resp.ToFrom)
	s.Require().Len(resp.CommonParticipants, 1)
	s.Equal("u3", resp.CommonParticipants[0].IntermediateID)
	s.Require().NotNil(resp.CommonParticipants[0].IntermediateToTo)
	s.False(*resp.CommonParticipants[0].IntermediateToTo)
}

// TestReputationCount verifies the aggregate endpoint.
func (s *HTTPSuite) TestReputationCount() {
	s.upsert("u1", "u3", true)
	s.upsert("u3", "u2", true)
	s.upsert("u1", "u4", true)
	s.upsert("u4", "u2", false)

	rec := s.do(http.MethodGet,
		"/reputation/count?fromParticipantId=u1&toParticipantId=u2&markType=RelationMark", "")
	s.Require().Equal(http.StatusOK, rec.Code)

	var resp struct {
		PositiveCount int `json:"positiveCount"`
		NegativeCount int `json:"negativeCount"`
		CommonCount   int `json:"commonCount"`
	}
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &resp))
	s.Equal(1, resp.PositiveCount)
	s.Equal(1, resp.NegativeCount)
	s.Equal(2, resp.CommonCount)
}

// TestReputationChangelog verifies the history endpoint.
func (s *HTTPSuite) TestReputationChangelog() {
	s.upsert("u1", "u2", true)
	s.upsert("u1", "u2", false)

	rec := s.do(http.MethodGet,
		"/reputation/changelog?fromParticipantId=u1&toParticipantId=u2&markType=RelationMark", "")
	s.Require().Equal(http.StatusOK, rec.Code)

	var resp struct {
		Changes []struct {
			ParticipantID string `json:"participantId"`
			Value         bool   `json:"value"`
		} `json:"changes"`
	}
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &resp))
	s.Require().Len(resp.Changes, 2)
	s.True(resp.Changes[0].Value)
	s.False(resp.Changes[1].Value)
	s.Equal("u1", resp.Changes[0].ParticipantID)
}

// TestQueryValidation verifies shared query-parameter handling.
func (s *HTTPSuite) TestQueryValidation() {
	s.Run("missing participants", func() {
		rec := s.do(http.MethodGet, "/reputation/count?markType=RelationMark", "")
		s.Equal(http.StatusBadRequest, rec.Code)
	})

	s.Run("missing mark type", func() {
		rec := s.do(http.MethodGet, "/reputation/count?fromParticipantId=u1&toParticipantId=u2", "")
		s.Equal(http.StatusBadRequest, rec.Code)
	})
}

// TestHealthz verifies aggregated resource health.
func (s *HTTPSuite) TestHealthz() {
	s.Run("healthy resources report ok", func() {
		router := s.buildRouter("", map[string]HealthChecker{"neo4j": fakeHealth{}})
		req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		s.Equal(http.StatusOK, rec.Code)
	})

	s.Run("one failing resource degrades the status", func() {
		router := s.buildRouter("", map[string]HealthChecker{
			"neo4j": fakeHealth{},
			"redis": fakeHealth{err: errors.New("connection refused")},
		})
		req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		s.Equal(http.StatusServiceUnavailable, rec.Code)

		var checks map[string]string
		s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &checks))
		s.Equal("ok", checks["neo4j"])
		s.Contains(checks["redis"], "connection refused")
	})
}

// TestRequestID verifies id propagation on responses.
func (s *HTTPSuite) TestRequestID() {
	s.Run("echoes an inbound id", func() {
		req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
		req.Header.Set("X-Request-ID", "req-42")
		rec := httptest.NewRecorder()
		s.router.ServeHTTP(rec, req)

		s.Equal("req-42", rec.Header().Get("X-Request-ID"))
	})

	s.Run("assigns one when absent", func() {
		req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
		rec := httptest.NewRecorder()
		s.router.ServeHTTP(rec, req)

		s.NotEmpty(rec.Header().Get("X-Request-ID"))
	})
}

// TestAuth verifies the optional bearer-token guard.
func (s *HTTPSuite) TestAuth() {
	const key = "test-signing-key"
	router := s.buildRouter(key, nil)

	signedToken := func(signingKey string) string {
		token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
			"sub": "gateway",
			"exp": time.Now().Add(time.Hour).Unix(),
		})
		raw, err := token.SignedString([]byte(signingKey))
		s.Require().NoError(err)
		return raw
	}

	s.Run("rejects a missing token", func() {
		req := httptest.NewRequest(http.MethodGet,
			"/reputation/count?fromParticipantId=u1&toParticipantId=u2&markType=RelationMark", nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		s.Equal(http.StatusUnauthorized, rec.Code)
	})

	s.Run("rejects a token with the wrong key", func() {
		req := httptest.NewRequest(http.MethodGet,
			"/reputation/count?fromParticipantId=u1&toParticipantId=u2&markType=RelationMark", nil)
		req.Header.Set("Authorization", "Bearer "+signedToken("other-key"))
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		s.Equal(http.StatusUnauthorized, rec.Code)
	})

	s.Run("accepts a valid token", func() {
		req := httptest.NewRequest(http.MethodGet,
			"/reputation/count?fromParticipantId=u1&toParticipantId=u2&markType=RelationMark", nil)
		req.Header.Set("Authorization", "Bearer "+signedToken(key))
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		s.Equal(http.StatusOK, rec.Code)
	})

	s.Run("leaves healthz open", func() {
		req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		s.Equal(http.StatusOK, rec.Code)
	})
}
