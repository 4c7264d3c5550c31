package model

// Operation names the external side effect a stage wraps.
type Operation string

const (
	OpNoOp            Operation = "noop"
	OpCreateDataset   Operation = "create_dataset"
	OpCreateTable     Operation = "create_table"
	OpUploadFile      Operation = "upload_file"
	OpLoadToWarehouse Operation = "load_to_warehouse"
	OpQualityCheck    Operation = "quality_check"
	OpDeleteDataset   Operation = "delete_dataset"
)

// Stage is the declarative description of one step of a pipeline.
type Stage struct {
	ID        string                 `json:"id"`
	Operation Operation              `json:"operation"`
	Params    map[string]interface{} `json:"params,omitempty"`
	DependsOn []string               `json:"depends_on"`
}

// PipelineDescription is what surfaces (CLI, API) show about a definition.
type PipelineDescription struct {
	Name    string         `json:"name"`
	Order   []string       `json:"order"`
	Stages  []Stage        `json:"stages"`
	Columns []ColumnOutput `json:"columns"`
}

// ColumnOutput is the JSON form of a schema column.
type ColumnOutput struct {
	Name     string `json:"name"`
	Type     string `json:"type"`
	Nullable bool   `json:"nullable"`
}
