package middleware

import (
	"bytes"
	"errors"
	"io"
	"time"

	"agent-gate.backend/internal/domain/entities"
	domainerrors "agent-gate.backend/internal/domain/errors"
	"agent-gate.backend/internal/domain/repositories"
	"agent-gate.backend/internal/interfaces/http/response"
	"agent-gate.backend/pkg/crypto"
	"agent-gate.backend/pkg/logger"
	"agent-gate.backend/pkg/redis"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// IdempotencyHeader carries the caller-supplied at-most-once key.
const IdempotencyHeader = "Idempotency-Key"

type captureWriter struct {
	gin.ResponseWriter
	body *bytes.Buffer
}

func (w *captureWriter) Write(b []byte) (int, error) {
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}

func (w *captureWriter) WriteString(s string) (int, error) {
	w.body.WriteString(s)
	return w.ResponseWriter.WriteString(s)
}

// IdempotencyMiddleware gives mutating endpoints at-most-once semantics keyed
// on (route, Idempotency-Key). The relational store is the source of truth;
// the replay cache only short-cuts duplicate deliveries of terminal results.
// Resolution:
//
//	no record            -> claim IN_FLIGHT, run the handler, capture the result
//	terminal, same body  -> replay the captured status and body verbatim
//	terminal, diff body  -> 409 IDEMPOTENCY_CONFLICT
//	in flight, fresh     -> 409 IN_FLIGHT_CONFLICT
//	in flight, abandoned -> take over via compare-and-swap on created_at
func IdempotencyMiddleware(repo repositories.IdempotencyRepository, cache *redis.ReplayCache) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.GetHeader(IdempotencyHeader)
		if key == "" {
			response.AbortError(c, domainerrors.BadRequest(domainerrors.CodeMissingIdempotencyKey, "Idempotency-Key header is required"))
			return
		}
		route := c.Request.Method + " " + c.FullPath()
		ctx := c.Request.Context()

		var body []byte
		if c.Request.Body != nil {
			var err error
			body, err = io.ReadAll(c.Request.Body)
			if err != nil {
				response.AbortError(c, domainerrors.BadRequest(domainerrors.CodeInvalidRequest, "failed to read request body"))
				return
			}
			c.Request.Body = io.NopCloser(bytes.NewReader(body))
		}
		fingerprint := crypto.Fingerprint(body)

		if cache != nil {
			if cached, err := cache.Get(ctx, route, key); err == nil {
				if cached.Fingerprint != fingerprint {
					response.AbortError(c, domainerrors.Conflict(domainerrors.CodeIdempotencyConflict, "idempotency key reused with a different request body"))
					return
				}
				replay(c, cached.StatusCode, cached.Body)
				return
			}
		}

		claimed, err := claim(c, repo, route, key, fingerprint)
		if err != nil {
			response.AbortError(c, err)
			return
		}
		if !claimed {
			return
		}

		w := &captureWriter{ResponseWriter: c.Writer, body: &bytes.Buffer{}}
		c.Writer = w
		c.Next()

		status := c.Writer.Status()
		if status >= 500 {
			// Leave the pair retryable after a server-side failure.
			if err := repo.Delete(ctx, route, key); err != nil {
				logger.Error(ctx, "failed to release idempotency claim",
					zap.String("route", route), zap.Error(err))
			}
			return
		}

		captured := w.body.String()
		if err := repo.Complete(ctx, route, key, status, captured); err != nil {
			logger.Error(ctx, "failed to capture idempotent response",
				zap.String("route", route), zap.Error(err))
			return
		}
		if cache != nil {
			if err := cache.Put(ctx, route, key, &redis.CachedResponse{
				Fingerprint: fingerprint,
				StatusCode:  status,
				Body:        captured,
			}, entities.IdempotencyRetention); err != nil {
				logger.Warn(ctx, "replay cache write failed",
					zap.String("route", route), zap.Error(err))
			}
		}
	}
}

// claim resolves ownership of (route, key). It reports true when the current
// request should run the handler; otherwise it has already written a replay
// or conflict response.
func claim(c *gin.Context, repo repositories.IdempotencyRepository, route, key, fingerprint string) (bool, error) {
	ctx := c.Request.Context()
	err := repo.InsertInFlight(ctx, &entities.IdempotencyRecord{
		Route:              route,
		Key:                key,
		RequestFingerprint: fingerprint,
	})
	if err == nil {
		return true, nil
	}
	if !errors.Is(err, domainerrors.ErrAlreadyExists) {
		return false, domainerrors.DatabaseError(err)
	}

	record, err := repo.Get(ctx, route, key)
	if err != nil {
		return false, domainerrors.DatabaseError(err)
	}

	if record.Status == entities.IdempotencyStatusCompleted {
		if record.RequestFingerprint != fingerprint {
			return false, domainerrors.Conflict(domainerrors.CodeIdempotencyConflict, "idempotency key reused with a different request body")
		}
		replay(c, record.StatusCode, record.ResponseBody)
		return false, nil
	}

	if time.Since(record.CreatedAt) < entities.InFlightTakeoverAge {
		return false, domainerrors.Conflict(domainerrors.CodeInFlightConflict, "a request with this idempotency key is in flight")
	}

	// Abandoned claim: take it over.
	if err := repo.TakeOver(ctx, route, key, record.CreatedAt, fingerprint); err != nil {
		if errors.Is(err, domainerrors.ErrAlreadyExists) {
			return false, domainerrors.Conflict(domainerrors.CodeInFlightConflict, "a request with this idempotency key is in flight")
		}
		return false, domainerrors.DatabaseError(err)
	}
	return true, nil
}

func replay(c *gin.Context, status int, body string) {
	c.Header("X-Idempotency-Replay", "true")
	c.Data(status, "application/json", []byte(body))
	c.Abort()
}
