// Package mediaqueue implements the persistent media-task queue
// processor: it drains MediaTask rows under the same
// rate-limited, retried analyzer calls ingest uses, turning each completed
// task into the role-tagged chunks a MediaPipeline would have produced
// inline. Draining is caller-driven through ProcessOne/ProcessBatch; the
// package never starts its own timer.
package mediaqueue

import (
	"context"
	"time"

	"github.com/vmonin/semknow/internal/aiclient"
	"github.com/vmonin/semknow/internal/config"
	"github.com/vmonin/semknow/internal/contextstrategy"
	"github.com/vmonin/semknow/internal/domain"
	"github.com/vmonin/semknow/internal/media"
	"github.com/vmonin/semknow/internal/splitter"
	"github.com/vmonin/semknow/internal/store"
)

// Dependencies are the collaborators Processor needs. Analyzers and
// RateLimiters are keyed by domain.MediaType, mirroring
// ingest.Dependencies so both packages share one analyzer/limiter set in
// practice.
type Dependencies struct {
	Store        *store.Store
	Splitter     *splitter.SmartSplitter
	Strategy     *contextstrategy.HierarchicalContextStrategy
	Analyzers    map[domain.MediaType]aiclient.Analyzer
	RateLimiters map[domain.MediaType]*aiclient.RateLimiter

	MaxRetries int
	BaseDelay  time.Duration
	MediaCfg   config.MediaConfig
}

// Processor drains the persistent MediaTask queue.
type Processor struct {
	deps Dependencies
}

// New returns a Processor over deps.
func New(deps Dependencies) *Processor {
	return &Processor{deps: deps}
}

// ProcessOne selects the oldest pending task, analyzes it under its media
// type's rate limiter and retry policy, and applies the resulting chunks.
// It returns true iff a task was picked, regardless of whether that task
// ultimately succeeded or failed; a failure is recorded on the task row,
// not returned as an error, mirroring ingest's per-item swallow-and-continue
// idiom.
func (p *Processor) ProcessOne(ctx context.Context) (bool, error) {
	tasks, err := p.deps.Store.NextPendingMediaTasks(ctx, 1)
	if err != nil {
		return false, err
	}
	if len(tasks) == 0 {
		return false, nil
	}
	task := tasks[0]

	task.Status = domain.MediaTaskStatusProcessing
	task.UpdatedAt = time.Now().UTC()
	if err := p.deps.Store.SaveMediaTask(ctx, &task); err != nil {
		return true, err
	}

	analyzer, ok := p.deps.Analyzers[task.MediaType]
	if !ok {
		p.fail(ctx, &task, "no analyzer configured for media type "+string(task.MediaType))
		return true, nil
	}

	if rl, ok := p.deps.RateLimiters[task.MediaType]; ok {
		rl.Wait()
	}

	req := aiclient.MediaRequest{
		Path:        task.MediaPath,
		MimeType:    task.MimeType,
		ContextText: task.ContextText,
		UserPrompt:  task.UserPrompt,
		MediaType:   task.MediaType,
	}

	var analysis domain.MediaAnalysisResult
	analyzeErr := aiclient.RetryWithBackoff(ctx, p.deps.MaxRetries, p.deps.BaseDelay, func(ctx context.Context) error {
		r, err := analyzer.Analyze(ctx, req)
		if err != nil {
			return err
		}
		analysis = r
		return nil
	})
	if analyzeErr != nil {
		p.fail(ctx, &task, analyzeErr.Error())
		return true, nil
	}

	if err := p.apply(ctx, &task, analysis); err != nil {
		p.fail(ctx, &task, err.Error())
		return true, nil
	}

	task.Status = domain.MediaTaskStatusCompleted
	task.UpdatedAt = time.Now().UTC()
	if err := p.deps.Store.SaveMediaTask(ctx, &task); err != nil {
		return true, err
	}
	return true, nil
}

// ProcessBatch loops ProcessOne up to maxTasks times or until the queue is
// empty, whichever comes first.
func (p *Processor) ProcessBatch(ctx context.Context, maxTasks int) (int, error) {
	processed := 0
	for processed < maxTasks {
		picked, err := p.ProcessOne(ctx)
		if err != nil {
			return processed, err
		}
		if !picked {
			break
		}
		processed++
	}
	return processed, nil
}

func (p *Processor) fail(ctx context.Context, task *domain.MediaTask, message string) {
	task.Status = domain.MediaTaskStatusFailed
	task.ErrorMessage = message
	task.UpdatedAt = time.Now().UTC()
	_ = p.deps.Store.SaveMediaTask(ctx, task)
}

// apply locates the chunk this task enriches (or, for a direct-media
// document, the sole placeholder ref chunk), overwrites it in place with
// the analysis result exactly as a synchronous enrichment would, runs the
// Transcription/OCR steps to append any auxiliary role chunks, and
// persists the document's full chunk set with the touched chunks marked
// pending for the BatchManager to embed.
func (p *Processor) apply(ctx context.Context, task *domain.MediaTask, analysis domain.MediaAnalysisResult) error {
	doc, err := p.deps.Store.GetDocument(ctx, task.DocumentID)
	if err != nil {
		return err
	}
	chunks, err := p.deps.Store.GetChunks(ctx, task.DocumentID)
	if err != nil {
		return err
	}

	targetIdx := findTargetChunk(chunks, task)
	if targetIdx < 0 {
		return errNoTargetChunk
	}
	target := &chunks[targetIdx]
	if target.Metadata == nil {
		target.Metadata = map[string]string{}
	}
	delete(target.Metadata, domain.MetaKeyPendingEnrich)
	if analysis.Description != nil {
		target.Content = *analysis.Description
	}
	target.Metadata[domain.MetaKeyOriginalPath] = task.MediaPath
	if task.ResultChunkID == "" {
		// A direct-media placeholder doubles as the document's summary,
		// same as a synchronous SummaryStep run would have produced. An
		// embedded reference inside a text document stays role-less.
		target.Metadata[domain.MetaKeyRole] = string(domain.ChunkRoleSummary)
	}
	media.WriteEnrichment(target.Metadata, task.MediaType, analysis)

	maxIndex := -1
	for _, c := range chunks {
		if c.ChunkIndex > maxIndex {
			maxIndex = c.ChunkIndex
		}
	}

	auxPipeline := media.New(
		media.TranscriptionStep{EnableTimecodes: p.deps.MediaCfg.Processing.EnableTimecodes},
		media.OCRStep{ParserMode: p.deps.MediaCfg.Processing.OCRParserMode},
	)
	mc := media.MediaContext{
		MediaPath:        task.MediaPath,
		Document:         doc,
		Analysis:         analysis,
		BaseIndex:        maxIndex + 1,
		Services:         map[string]any{"splitter": p.deps.Splitter},
		UserInstructions: task.UserPrompt,
	}
	out, err := auxPipeline.Run(ctx, mc)
	if err != nil {
		return err
	}

	targetID := target.ID
	final := append(chunks, out.Chunks...)

	// Re-resolve every touched chunk by id within final itself: append may
	// have reallocated the backing array, so mutating through target (a
	// pointer into the pre-append chunks slice) would silently miss value
	// fields like EmbeddingStatus on the copy Store.Save actually persists.
	touchedIDs := make(map[string]struct{}, len(out.Chunks)+1)
	touchedIDs[targetID] = struct{}{}
	for _, c := range out.Chunks {
		touchedIDs[c.ID] = struct{}{}
	}
	for i := range final {
		if _, ok := touchedIDs[final[i].ID]; !ok {
			continue
		}
		final[i].Metadata[domain.MetaKeyVectorSource] = p.deps.Strategy.VectorText(doc, &final[i])
		final[i].EmbeddingStatus = domain.EmbeddingStatusPending
	}

	if err := p.deps.Store.Save(ctx, doc, final); err != nil {
		return err
	}
	task.ResultChunkID = targetID
	return nil
}

// findTargetChunk returns the index within chunks that task enriches: the
// chunk matching task.ResultChunkID when set (an embedded reference inside
// a larger document), or the sole *_ref chunk still flagged
// _pending_enrichment (a direct-media document's placeholder) otherwise.
func findTargetChunk(chunks []domain.Chunk, task *domain.MediaTask) int {
	if task.ResultChunkID != "" {
		for i, c := range chunks {
			if c.ID == task.ResultChunkID {
				return i
			}
		}
		return -1
	}
	for i, c := range chunks {
		if c.Metadata[domain.MetaKeyPendingEnrich] == "true" {
			return i
		}
	}
	return -1
}
