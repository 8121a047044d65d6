package entity

// SyncConfig is the per-table mirroring policy. It is owned by an external
// administrative process; the queue engine only reads it.
type SyncConfig struct {
	SupabaseTable    string `json:"supabase_table"`
	TargetWorkflow   string `json:"target_workflow"`
	TargetObjectType string `json:"target_object_type"`

	Enabled      bool `json:"enabled"`
	SyncOnInsert bool `json:"sync_on_insert"`
	SyncOnUpdate bool `json:"sync_on_update"`
	SyncOnDelete bool `json:"sync_on_delete"`

	FieldMapping   map[string]string `json:"field_mapping,omitempty"`
	ExcludedFields []string          `json:"excluded_fields,omitempty"`
}

// OperationEnabled reports whether the config allows syncing op.
func (c *SyncConfig) OperationEnabled(op Operation) bool {
	switch op {
	case OpInsert:
		return c.SyncOnInsert
	case OpUpdate:
		return c.SyncOnUpdate
	case OpDelete:
		return c.SyncOnDelete
	}

	return false
}

// Target returns the destination identifier for the given delivery mode.
func (c *SyncConfig) Target(workflowMode bool) string {
	if workflowMode {
		return c.TargetWorkflow
	}

	return c.TargetObjectType
}
