package service

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"

	itemrepo "inventory-backend/internal/domains/item/repository"
	"inventory-backend/internal/domains/itemimport/model"
	"inventory-backend/pkg/database"

	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog/log"
)

// Engine là pipeline import:
// decoder => header resolver => normalizer => category cache + upsert => batch commit => report.
//
// Engine không tự lock: caller phải giữ import lock trong suốt Run.
type Engine struct {
	db         database.TxBeginner
	items      itemrepo.ItemRepository
	categories itemrepo.CategoryRepository
	aliases    *AliasTable
}

func NewEngine(
	db database.TxBeginner,
	items itemrepo.ItemRepository,
	categories itemrepo.CategoryRepository,
	aliases *AliasTable,
) *Engine {
	return &Engine{
		db:         db,
		items:      items,
		categories: categories,
		aliases:    aliases,
	}
}

// run gom state của một lần Run
type run struct {
	acc        *ReportAccumulator
	batch      *BatchController
	cache      *CategoryCache
	normalizer *RowNormalizer
	upsert     *UpsertEngine
}

// Run import toàn bộ src. Lỗi từng row nằm trong report; error trả về
// chỉ dành cho lỗi cấp run (kèm report Success=false):
//   - model.ErrIngestFailure
//   - *model.MissingRequiredColumnsError
//   - model.ErrCommitFailed
//   - model.ErrImportCancelled
func (e *Engine) Run(ctx context.Context, src io.ReadSeeker, opts model.Options) (*model.ImportReport, error) {
	r := &run{acc: NewReportAccumulator(opts.MaxErrorsRecorded)}
	r.acc.Report().DryRun = opts.DryRun

	if err := opts.Validate(); err != nil {
		return e.fail(r, fmt.Errorf("%w: %v", model.ErrInvalidOptions, err))
	}

	// ========== PHASE 1: DECODE + HEADER ==========
	dec, err := NewStreamDecoder(src)
	if err != nil {
		return e.fail(r, err)
	}
	report := r.acc.Report()
	report.Delimiter = string(dec.Delimiter)
	report.Encoding = dec.Encoding

	records, err := dec.CountRecords()
	if err != nil {
		return e.fail(r, err)
	}
	if records > 0 {
		report.TotalLines = records - 1
	}

	header, err := dec.Next()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return e.fail(r, fmt.Errorf("%w: file is empty", model.ErrIngestFailure))
		}
		if !errors.Is(err, model.ErrIngestFailure) {
			err = fmt.Errorf("%w: header row: %v", model.ErrIngestFailure, err)
		}
		return e.fail(r, err)
	}

	required := opts.EffectiveRequired()
	columns, err := e.aliases.Resolve(header.Cells, required)
	if err != nil {
		return e.fail(r, err)
	}
	report.ColumnMap = columns.Sources()

	log.Info().
		Str("delimiter", report.Delimiter).
		Str("encoding", report.Encoding).
		Int("total_lines", report.TotalLines).
		Interface("columns", report.ColumnMap).
		Int("batch_size", opts.BatchSize).
		Bool("dry_run", opts.DryRun).
		Msg("[IMPORT] Header resolved, starting run")

	// ========== PHASE 2: TRANSACTION SCOPE ==========
	if ctx.Err() != nil {
		return e.cancel(ctx, r)
	}

	var db database.TxBeginner = e.db
	if opts.DryRun {
		outer, err := e.db.Begin(ctx)
		if err != nil {
			return e.fail(r, fmt.Errorf("%w: begin dry run: %v", model.ErrCommitFailed, err))
		}
		// dry run: mọi window là savepoint của outer, rollback hết ở cuối
		defer func() {
			if err := outer.Rollback(context.WithoutCancel(ctx)); err != nil && !errors.Is(err, pgx.ErrTxClosed) {
				log.Error().Err(err).Msg("[IMPORT] Dry run rollback failed")
			}
		}()
		db = outer
	}

	r.batch = NewBatchController(db, opts.BatchSize)
	r.cache = NewCategoryCache(e.categories)
	r.normalizer = NewRowNormalizer(columns, required, opts.StrictNumbers)
	r.upsert = NewUpsertEngine(e.items)

	tx, err := r.batch.Tx(ctx)
	if err != nil {
		return e.fail(r, err)
	}
	if err := r.cache.Preload(ctx, tx); err != nil {
		_ = r.batch.Abort(ctx)
		return e.fail(r, fmt.Errorf("%w: %v", model.ErrIngestFailure, err))
	}

	// ========== PHASE 3: ROWS ==========
	for {
		if ctx.Err() != nil {
			return e.cancel(ctx, r)
		}

		row, err := dec.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			var parseErr *csv.ParseError
			if !errors.As(err, &parseErr) {
				_ = r.batch.Abort(ctx)
				return e.fail(r, err)
			}
			r.acc.Observe(model.Errored(row.Line, "", fmt.Sprintf("Line %d: malformed record: %v", row.Line, parseErr.Err)))
			if err := r.batch.RowDone(ctx, false); err != nil {
				return e.fail(r, err)
			}
			continue
		}

		outcome, fatal := e.processRow(ctx, r, row)
		if fatal != nil {
			_ = r.batch.Abort(ctx)
			if ctx.Err() != nil {
				return e.cancel(ctx, r)
			}
			return e.fail(r, fmt.Errorf("%w: line %d: %v", model.ErrCommitFailed, row.Line, fatal))
		}
		if outcome.Kind == model.OutcomeErrored && ctx.Err() != nil {
			// row fail vì context bị cancel, không tính là lỗi của row
			return e.cancel(ctx, r)
		}

		r.acc.Observe(outcome)
		if err := r.batch.RowDone(ctx, outcome.Persisted()); err != nil {
			return e.fail(r, err)
		}
	}

	// ========== PHASE 4: FINAL COMMIT ==========
	if err := r.batch.Finish(ctx); err != nil {
		return e.fail(r, err)
	}

	final := e.finalize(r, true, nil)
	log.Info().
		Int("imported", final.ImportedCount).
		Int("updated", final.UpdatedCount).
		Int("skipped", final.SkippedCount).
		Int("errored", final.ErroredCount).
		Int("processed", final.ProcessedLines).
		Int("categories_created", final.CategoriesCreated).
		Float64("success_rate", final.SuccessRate).
		Int64("duration_ms", final.DurationMs).
		Msg("[IMPORT] Run completed")

	return final, nil
}

// processRow: normalize rồi persist trong savepoint riêng của row.
// Error trả về là fatal (savepoint machinery hỏng), còn lỗi của row
// nằm trong outcome Errored.
func (e *Engine) processRow(ctx context.Context, r *run, row RawRow) (model.ImportOutcome, error) {
	cand, skipped := r.normalizer.Normalize(row)
	if skipped != nil {
		log.Debug().Int("line", row.Line).Str("reason", string(skipped.Reason)).Msg("[IMPORT] Row skipped")
		return *skipped, nil
	}

	tx, err := r.batch.Tx(ctx)
	if err != nil {
		return model.ImportOutcome{}, err
	}

	var (
		outcome         model.ImportOutcome
		createdCategory string
	)
	err = database.WithSavepoint(ctx, tx, func(sp pgx.Tx) error {
		categoryID, created, err := r.cache.Resolve(ctx, sp, cand.CategoryName)
		if err != nil {
			return err
		}
		if created {
			createdCategory = cand.CategoryName
		}

		outcome, err = r.upsert.Apply(ctx, sp, cand.Line, cand.ToCatalogItem(categoryID))
		return err
	})
	if err == nil {
		return outcome, nil
	}

	// category tạo trong savepoint đã bị rollback cùng row
	if createdCategory != "" {
		r.cache.Forget(createdCategory)
	}
	if errors.Is(err, database.ErrSavepointFailed) {
		return model.ImportOutcome{}, err
	}

	log.Debug().Err(err).Int("line", cand.Line).Str("barcode", cand.Barcode).Msg("[IMPORT] Row errored")
	return model.Errored(cand.Line, cand.Barcode, fmt.Sprintf("Line %d: %v", cand.Line, err)), nil
}

// cancel rollback window đang mở; các window đã commit vẫn giữ nguyên.
func (e *Engine) cancel(ctx context.Context, r *run) (*model.ImportReport, error) {
	if r.batch != nil {
		_ = r.batch.Abort(ctx)
	}
	err := fmt.Errorf("%w: %v", model.ErrImportCancelled, context.Cause(ctx))
	report := e.finalize(r, false, err)
	log.Warn().Int("processed", report.ProcessedLines).Int("committed_windows", report.CommittedWindows).Msg("[IMPORT] Run cancelled")
	return report, err
}

func (e *Engine) fail(r *run, err error) (*model.ImportReport, error) {
	report := e.finalize(r, false, err)
	log.Error().Err(err).Int("processed", report.ProcessedLines).Msg("[IMPORT] Run failed")
	return report, err
}

func (e *Engine) finalize(r *run, success bool, failure error) *model.ImportReport {
	report := r.acc.Finalize(success, failure)
	if r.batch != nil {
		report.CommittedWindows = r.batch.Committed()
	}
	if r.cache != nil {
		report.CategoriesCreated = r.cache.Created()
	}
	return report
}
