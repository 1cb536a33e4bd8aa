package shared

// Asynq task types
const (
	TypeItemImport           = "item:import"
	TypeItemImportSweepStale = "item:import_sweep_stale"
)

// Asynq queues (priority cấu hình ở cmd/worker)
const (
	QueueImport  = "import"
	QueueDefault = "default"
)

// ImportLockKey là key chung cho mọi lần import catalog:
// tại một thời điểm chỉ một import được chạy.
const ImportLockKey = "item-import"
