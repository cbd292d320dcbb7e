// Package recording persists faults and periodic statistics snapshots
// emitted by an iommu.Orchestrator to a SQLite file, consuming only the
// Orchestrator's public operations. Schema is derived by reflection over
// the sample entry, grounded on datarecording/datarecorder.go.
package recording

import (
	"database/sql"
	"fmt"
	"os"
	"reflect"
	"strings"

	"github.com/fatih/structs"

	// Registers the sqlite3 driver with database/sql.
	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/xid"
	"github.com/tebeka/atexit"

	"github.com/sarchlab/smmu-sim/iommu"
)

// FaultRecord is one row of the faults table. Fields are written in this
// exact order, matching the column order createTable derives from them.
type FaultRecord struct {
	Sequence    uint64
	Kind        int
	StreamID    uint32
	ASID        uint16
	VMID        uint16
	VA          uint64
	Timestamp   uint64
	Description string
}

// StatsRecord is one row of the statistics table, a snapshot of
// iommu.Statistics taken at a point in time.
type StatsRecord struct {
	Sequence          uint64
	TotalTranslations uint64
	CacheHits         uint64
	CacheMisses       uint64
	Walks             uint64
	TranslationFaults uint64
	PermissionFaults  uint64
	CommandsProcessed uint64
	EventsGenerated   uint64
}

const (
	faultsTable = "faults"
	statsTable  = "statistics"
)

// Sink owns a SQLite connection and table set, draining faults from an
// Orchestrator's event queue and taking periodic statistics snapshots.
type Sink struct {
	db *sql.DB

	faultSeq uint64
	statsSeq uint64
}

// Open creates (or opens) the SQLite file at path and prepares the faults
// and statistics tables. If path is empty, a unique name is generated,
// mirroring datarecorder.go's xid-based default naming.
func Open(path string) (*Sink, error) {
	if path == "" {
		path = "smmu_recording_" + xid.New().String() + ".sqlite3"
	}

	if _, err := os.Stat(path); err == nil {
		return nil, fmt.Errorf("recording: file %s already exists", path)
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("recording: open %s: %w", path, err)
	}

	s := &Sink{db: db}
	if err := s.createTable(faultsTable, FaultRecord{}); err != nil {
		return nil, err
	}
	if err := s.createTable(statsTable, StatsRecord{}); err != nil {
		return nil, err
	}

	atexit.Register(func() { s.Close() })

	return s, nil
}

func (s *Sink) createTable(name string, sample any) error {
	fields := strings.Join(structs.Names(sample), ", \n\t")
	ddl := "CREATE TABLE " + name + " (\n\t" + fields + "\n);"

	_, err := s.db.Exec(ddl)
	if err != nil {
		return fmt.Errorf("recording: create table %s: %w", name, err)
	}

	return nil
}

// RecordFault drains every pending event from o and inserts one row per
// fault. Returns the number of faults recorded.
func (s *Sink) RecordFault(o *iommu.Orchestrator) (int, error) {
	n := 0
	for {
		fault, ok := o.PopEvent()
		if !ok {
			break
		}

		s.faultSeq++
		rec := FaultRecord{
			Sequence:    s.faultSeq,
			Kind:        int(fault.Kind),
			StreamID:    uint32(fault.StreamID),
			ASID:        uint16(fault.ASID),
			VMID:        uint16(fault.VMID),
			VA:          uint64(fault.VA),
			Timestamp:   fault.Timestamp,
			Description: fault.Description,
		}

		if err := s.insert(faultsTable, rec); err != nil {
			return n, err
		}
		n++
	}

	return n, nil
}

// RecordStatistics inserts a single snapshot of o's counters.
func (s *Sink) RecordStatistics(o *iommu.Orchestrator) error {
	s.statsSeq++
	st := o.Statistics()

	rec := StatsRecord{
		Sequence:          s.statsSeq,
		TotalTranslations: st.TotalTranslations,
		CacheHits:         st.CacheHits,
		CacheMisses:       st.CacheMisses,
		Walks:             st.Walks,
		TranslationFaults: st.TranslationFaults,
		PermissionFaults:  st.PermissionFaults,
		CommandsProcessed: st.CommandsProcessed,
		EventsGenerated:   st.EventsGenerated,
	}

	return s.insert(statsTable, rec)
}

func (s *Sink) insert(table string, entry any) error {
	names := structs.Names(entry)
	placeholders := make([]string, len(names))
	for i := range placeholders {
		placeholders[i] = "?"
	}

	query := "INSERT INTO " + table + " VALUES (" + strings.Join(placeholders, ", ") + ")"

	values := make([]any, 0, len(names))
	v := reflect.ValueOf(entry)
	for i := 0; i < v.NumField(); i++ {
		values = append(values, v.Field(i).Interface())
	}

	_, err := s.db.Exec(query, values...)
	if err != nil {
		return fmt.Errorf("recording: insert into %s: %w", table, err)
	}

	return nil
}

// Close flushes and releases the underlying connection. Safe to call more
// than once.
func (s *Sink) Close() {
	if s.db == nil {
		return
	}

	s.db.Close()
	s.db = nil
}
