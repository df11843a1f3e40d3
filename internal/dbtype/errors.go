package dbtype

import "fmt"

// TableNotFoundError reports a reference to a table absent from the catalog.
type TableNotFoundError struct {
	Table string
}

func (e *TableNotFoundError) Error() string {
	return fmt.Sprintf("table not found: %s", e.Table)
}

// ColumnNotFoundError reports a reference to a column absent from a table.
type ColumnNotFoundError struct {
	Table, Column string
}

func (e *ColumnNotFoundError) Error() string {
	if e.Table == "" {
		return fmt.Sprintf("column not found: %s", e.Column)
	}
	return fmt.Sprintf("column not found: %s.%s", e.Table, e.Column)
}

// AmbiguousColumnError reports an unqualified column matching more than one FROM table.
type AmbiguousColumnError struct {
	Column string
}

func (e *AmbiguousColumnError) Error() string {
	return fmt.Sprintf("ambiguous column: %s", e.Column)
}

// IncompatibleTypeError reports a comparison or assignment between incompatible Value kinds.
type IncompatibleTypeError struct {
	Context string
}

func (e *IncompatibleTypeError) Error() string {
	if e.Context == "" {
		return "incompatible type"
	}
	return fmt.Sprintf("incompatible type: %s", e.Context)
}

// IndexNotFoundError reports a reference to an index that does not exist on a table.
type IndexNotFoundError struct {
	Table string
	Cols  []string
}

func (e *IndexNotFoundError) Error() string {
	return fmt.Sprintf("index not found on %s%v", e.Table, e.Cols)
}

// IndexExistsError reports an attempt to create an index that already exists.
type IndexExistsError struct {
	Table string
	Cols  []string
}

func (e *IndexExistsError) Error() string {
	return fmt.Sprintf("index already exists on %s%v", e.Table, e.Cols)
}

// DuplicateKeyError reports a unique/primary index violation on insert.
type DuplicateKeyError struct {
	Table string
}

func (e *DuplicateKeyError) Error() string {
	return fmt.Sprintf("duplicate key in table %s", e.Table)
}

// TxnAbortError reports that a transaction was forced to abort.
type TxnAbortError struct {
	TxnID  uint64
	Reason string
}

func (e *TxnAbortError) Error() string {
	return fmt.Sprintf("txn %d aborted: %s", e.TxnID, e.Reason)
}

// DeadlockAbortError reports a transaction aborted by deadlock detection. It
// is its own type, separate from TxnAbortError.
type DeadlockAbortError struct {
	TxnID uint64
}

func (e *DeadlockAbortError) Error() string {
	return fmt.Sprintf("txn %d aborted: deadlock detected", e.TxnID)
}

// LockTimeoutError reports a lock wait exceeding the configured timeout.
type LockTimeoutError struct {
	TxnID uint64
}

func (e *LockTimeoutError) Error() string {
	return fmt.Sprintf("txn %d: lock wait timed out", e.TxnID)
}

// IOError wraps a failure in the storage/log layer.
type IOError struct {
	Op  string
	Err error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("io error during %s: %v", e.Op, e.Err)
}

func (e *IOError) Unwrap() error { return e.Err }

// InternalError reports a condition that should be unreachable under correct use
// (e.g. a non-IN comparison against an empty value list).
type InternalError struct {
	Msg string
}

func (e *InternalError) Error() string {
	return fmt.Sprintf("internal error: %s", e.Msg)
}
