package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	_ "github.com/lib/pq"
	"github.com/streadway/amqp"
	"go.uber.org/zap"

	"github.com/muhammadolammi/jobrank/internal/database"
	"github.com/muhammadolammi/jobrank/internal/extract"
	"github.com/muhammadolammi/jobrank/internal/metrics"
	"github.com/muhammadolammi/jobrank/internal/report"
	"github.com/muhammadolammi/jobrank/internal/screening"
)

const sessionsQueue = "sessions"

// rankSession ranks every resume uploaded to the session and persists the
// ordered results. Downloads and the final write are retried; the ranking
// itself is deterministic and is not.
func (workerConfig *WorkerConfig) rankSession(ctx context.Context, currentSession Session) error {
	resumes, err := workerConfig.DB.GetResumesBySession(ctx, currentSession.ID)
	if err != nil {
		return fmt.Errorf("error getting resumes for session: %v, err: %w", currentSession.ID, err)
	}

	ids := documentIDs(resumes)
	var failures []screening.Failure
	docs := make([]screening.Document, 0, len(resumes))
	for i, resume := range resumes {
		doc, err := workerConfig.loadDocument(ctx, resume, ids[i])
		if err != nil {
			if !workerConfig.SkipUnreadable {
				return err
			}
			workerConfig.Logger.Warn("skipping resume",
				zap.String("object_key", resume.ObjectKey), zap.Error(err))
			failures = append(failures, screening.Failure{ID: ids[i], Error: err.Error()})
			continue
		}
		docs = append(docs, doc)
	}

	if len(docs) == 0 && len(failures) > 0 {
		return fmt.Errorf("no readable resumes in session %s", currentSession.ID)
	}

	outcome, err := workerConfig.Screener.Rank(ctx, screening.Request{
		JobDescription: jobDescription(currentSession),
		Documents:      docs,
	})
	if err != nil {
		return fmt.Errorf("ranking failed: %w", err)
	}

	results := RankingResults{
		SessionID: currentSession.ID,
		Results:   report.Entries(outcome.Results),
		Failures:  append(failures, outcome.Failures...),
	}
	if results.Failures == nil {
		results.Failures = []screening.Failure{}
	}

	resultsJSON, err := json.Marshal(results.Results)
	if err != nil {
		return fmt.Errorf("failed to marshal ranking results: %w", err)
	}
	failuresJSON, err := json.Marshal(results.Failures)
	if err != nil {
		return fmt.Errorf("failed to marshal ranking failures: %w", err)
	}

	_, err = retry(3, workerConfig.RetryWait, func() (any, error) {
		return nil, workerConfig.DB.CreateOrUpdateRankingResults(ctx, database.CreateOrUpdateRankingResultsParams{
			Results:   resultsJSON,
			Failures:  failuresJSON,
			SessionID: results.SessionID,
		})
	})
	if err != nil {
		return fmt.Errorf("failed to save ranking result after retries: %w", err)
	}

	workerConfig.Logger.Info("session ranked",
		zap.String("session_id", currentSession.ID.String()),
		zap.Int("ranked", len(results.Results)),
		zap.Int("failed", len(results.Failures)),
	)
	return nil
}

// loadDocument downloads one resume and maps its MIME type to a format.
func (workerConfig *WorkerConfig) loadDocument(ctx context.Context, resume database.Resume, id string) (screening.Document, error) {
	format, err := extract.FormatFromMIME(resume.Mime)
	if err != nil {
		return screening.Document{}, &screening.DocumentError{ID: id, Err: err}
	}

	fileBytes, err := retry(3, workerConfig.RetryWait, func() ([]byte, error) {
		return workerConfig.Objects.Fetch(ctx, resume.ObjectKey)
	})
	if err != nil {
		return screening.Document{}, &screening.DocumentError{
			ID:  id,
			Err: fmt.Errorf("file download error: %w", err),
		}
	}

	return screening.Document{
		ID:      id,
		Content: fileBytes,
		Format:  format,
	}, nil
}

// documentIDs names each resume by its original filename. A blank name
// falls back to the resume id, and a name shared by several uploads gets
// the id prefix appended so every candidate stays distinct.
func documentIDs(resumes []database.Resume) []string {
	seen := make(map[string]int, len(resumes))
	for _, resume := range resumes {
		seen[resume.OriginalFilename]++
	}

	ids := make([]string, len(resumes))
	for i, resume := range resumes {
		name := resume.OriginalFilename
		switch {
		case name == "":
			ids[i] = resume.ID.String()
		case seen[name] > 1:
			ids[i] = fmt.Sprintf("%s (%s)", name, resume.ID.String()[:8])
		default:
			ids[i] = name
		}
	}
	return ids
}

// jobDescription prefixes the title so it takes part in the ranking.
func jobDescription(s Session) string {
	if s.JobTitle == "" {
		return s.JobDescription
	}
	return s.JobTitle + "\n" + s.JobDescription
}

func (workerConfig *WorkerConfig) setStatus(ctx context.Context, session Session, status, message string) {
	if err := workerConfig.DB.UpdateSessionStatus(ctx, database.UpdateSessionStatusParams{
		Status: status,
		ID:     session.ID,
	}); err != nil {
		workerConfig.Logger.Error("failed to update session status",
			zap.String("session_id", session.ID.String()), zap.String("status", status), zap.Error(err))
	}
	if err := workerConfig.Updates.Publish(session.ID.String(), sessionUpdate(session.ID.String(), status, message)); err != nil {
		workerConfig.Logger.Error("failed to publish update",
			zap.String("session_id", session.ID.String()), zap.Error(err))
	}
}

// handleMessage processes one queued session end to end.
func (workerConfig *WorkerConfig) handleMessage(ctx context.Context, body []byte) error {
	session := Session{}
	if err := json.Unmarshal(body, &session); err != nil {
		workerConfig.Logger.Error("error unmarshalling message body", zap.Error(err))
		metrics.SessionsTotal.WithLabelValues(statusFailed).Inc()
		return fmt.Errorf("decode session: %w", err)
	}

	// a redelivered session that already finished is acked without re-ranking
	if status, err := workerConfig.DB.GetSessionStatus(ctx, session.ID); err == nil && status == statusCompleted {
		workerConfig.Logger.Info("session already ranked", zap.String("session_id", session.ID.String()))
		return nil
	}

	workerConfig.setStatus(ctx, session, statusProcessing, "ranking started")

	if err := workerConfig.rankSession(ctx, session); err != nil {
		workerConfig.Logger.Error("error ranking session",
			zap.String("session_id", session.ID.String()), zap.Error(err))
		message := "ranking failed"
		var docErr *screening.DocumentError
		if errors.As(err, &docErr) {
			message = fmt.Sprintf("ranking failed: could not read %s", docErr.ID)
		}
		workerConfig.setStatus(ctx, session, statusFailed, message)
		metrics.SessionsTotal.WithLabelValues(statusFailed).Inc()
		return err
	}

	workerConfig.setStatus(ctx, session, statusCompleted, "ranking completed")
	metrics.SessionsTotal.WithLabelValues(statusCompleted).Inc()
	return nil
}

func worker(ctx context.Context, id int, workerConfig *WorkerConfig, wg *sync.WaitGroup) {
	defer wg.Done()
	log := workerConfig.Logger.With(zap.Int("worker", id+1))

	conn, err := amqp.Dial(workerConfig.RABBITMQUrl)
	if err != nil {
		log.Fatal("error dialling rabbitmq", zap.Error(err))
	}
	defer conn.Close()

	ch, err := conn.Channel()
	if err != nil {
		log.Fatal("error connecting to rabbitmq channel", zap.Error(err))
	}
	defer ch.Close()

	_, err = ch.QueueDeclare(
		sessionsQueue,
		true,  // durable
		false, // auto-delete when unused
		false, // exclusive
		false, // no-wait
		nil,   // arguments
	)
	if err != nil {
		log.Fatal("failed to declare queue", zap.Error(err))
	}
	// one unacknowledged session per worker
	if err := ch.Qos(1, 0, false); err != nil {
		log.Fatal("failed to set qos", zap.Error(err))
	}

	msgs, err := ch.Consume(
		sessionsQueue,
		"",    // consumer tag
		false, // auto-ack
		false, // exclusive
		false, // no-local
		false, // no-wait
		nil,   // arguments
	)
	if err != nil {
		log.Fatal("error consuming rabbitmq message", zap.Error(err))
	}

	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-msgs:
			if !ok {
				log.Warn("delivery channel closed")
				return
			}
			// failures are reported on the session; redelivery would repeat them
			_ = workerConfig.handleMessage(ctx, msg.Body)
			if err := msg.Ack(false); err != nil {
				log.Error("failed to ack message", zap.Error(err))
			}
		}
	}
}

func (workerConfig *WorkerConfig) StartConsumerWorkerPool(ctx context.Context, numWorkers int) {
	var wg sync.WaitGroup
	wg.Add(numWorkers)

	for i := 0; i < numWorkers; i++ {
		workerConfig.Logger.Info("worker started", zap.Int("worker", i+1))
		go worker(ctx, i, workerConfig, &wg)
	}
	wg.Wait()
}
