// Package sqlite provides SQLite database writing for isotopologue grouping results
package sqlite

import (
	"database/sql"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/ChrisMcGann/isogroup/pkg/core"
	"github.com/ChrisMcGann/isogroup/pkg/isotopologue"
)

// Date format for RunTable (ISO 8601)
const runDateFormat = "2006-01-02 15:04:05"

// RunInfo describes the parameters of one grouping run.
type RunInfo struct {
	Strategy  string
	Table     string
	Tolerance float64
	PPM       float64
	Charge    float64
}

// Writer handles writing grouping results to SQLite database files. Each
// Writer records one run; several runs may share a database file.
type Writer struct {
	db           *sql.DB
	outputPath   string
	runID        string
	spectrumStmt *sql.Stmt
	groupStmt    *sql.Stmt
	memberStmt   *sql.Stmt
	spectra      int
	groups       int
	closed       bool
}

// NewWriter creates a new SQLite writer and registers the run
func NewWriter(outputPath string, run RunInfo) (*Writer, error) {
	db, err := sql.Open("sqlite3", outputPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// SQLite allows a single writer
	db.SetMaxOpenConns(1)

	w := &Writer{
		db:         db,
		outputPath: outputPath,
		runID:      uuid.New().String(),
	}

	if err := w.createTables(); err != nil {
		db.Close()
		return nil, err
	}

	_, err = db.Exec(`
		INSERT INTO RunTable (RunId, CreationDate, Strategy, SubstitutionTable, Tolerance, PPM, Charge, NoofSpectra, NoofGroups)
		VALUES (?, ?, ?, ?, ?, ?, ?, 0, 0)
	`, w.runID, time.Now().UTC().Format(runDateFormat), run.Strategy, run.Table, run.Tolerance, run.PPM, run.Charge)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to insert run: %w", err)
	}

	if err := w.prepareStatements(); err != nil {
		db.Close()
		return nil, err
	}

	return w, nil
}

// RunID returns the identifier of the run recorded by this writer.
func (w *Writer) RunID() string {
	return w.runID
}

// createTables creates the required database schema
func (w *Writer) createTables() error {
	schema := `
	CREATE TABLE IF NOT EXISTS RunTable (
		RunId TEXT PRIMARY KEY,
		CreationDate TEXT,
		Strategy TEXT,
		SubstitutionTable TEXT,
		Tolerance DOUBLE,
		PPM DOUBLE,
		Charge DOUBLE,
		NoofSpectra INTEGER,
		NoofGroups INTEGER
	);

	CREATE TABLE IF NOT EXISTS SpectrumTable (
		SpectrumId INTEGER PRIMARY KEY AUTOINCREMENT,
		RunId TEXT REFERENCES RunTable(RunId),
		Name TEXT,
		SourceFile TEXT,
		RetentionTime DOUBLE,
		PrecursorMass DOUBLE,
		blobMass BLOB,
		blobIntensity BLOB
	);

	CREATE TABLE IF NOT EXISTS GroupTable (
		GroupId INTEGER PRIMARY KEY AUTOINCREMENT,
		SpectrumId INTEGER REFERENCES SpectrumTable(SpectrumId),
		SeedIndex INTEGER,
		SeedMass DOUBLE,
		SeedIntensity DOUBLE,
		NoofMembers INTEGER
	);

	CREATE TABLE IF NOT EXISTS MemberTable (
		GroupId INTEGER REFERENCES GroupTable(GroupId),
		PeakIndex INTEGER,
		Mass DOUBLE,
		Intensity DOUBLE,
		Substitutions TEXT
	);
	`

	_, err := w.db.Exec(schema)
	if err != nil {
		return fmt.Errorf("failed to create tables: %w", err)
	}

	return nil
}

// prepareStatements prepares SQL statements for batch insertion
func (w *Writer) prepareStatements() error {
	var err error

	w.spectrumStmt, err = w.db.Prepare(`
		INSERT INTO SpectrumTable (
			RunId, Name, SourceFile, RetentionTime, PrecursorMass, blobMass, blobIntensity
		) VALUES (?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare spectrum statement: %w", err)
	}

	w.groupStmt, err = w.db.Prepare(`
		INSERT INTO GroupTable (
			SpectrumId, SeedIndex, SeedMass, SeedIntensity, NoofMembers
		) VALUES (?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare group statement: %w", err)
	}

	w.memberStmt, err = w.db.Prepare(`
		INSERT INTO MemberTable (GroupId, PeakIndex, Mass, Intensity, Substitutions)
		VALUES (?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare member statement: %w", err)
	}

	return nil
}

// WriteResult writes one spectrum and its groups in a single transaction
func (w *Writer) WriteResult(spec *core.Spectrum, groups []isotopologue.Group) error {
	tx, err := w.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	if err := w.writeResult(tx, spec, groups); err != nil {
		tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit spectrum %s: %w", spec.Label(), err)
	}

	w.spectra++
	w.groups += len(groups)
	return nil
}

func (w *Writer) writeResult(tx *sql.Tx, spec *core.Spectrum, groups []isotopologue.Group) error {
	// Handle optional retention time
	var rt interface{} = nil
	if spec.RetentionTime != nil {
		rt = *spec.RetentionTime
	}

	// Encode peaks as binary blobs (little-endian float64)
	mzBlob := encodePeaksFloat64(spec.Peaks, true)   // m/z values
	intBlob := encodePeaksFloat64(spec.Peaks, false) // intensity values

	res, err := tx.Stmt(w.spectrumStmt).Exec(
		w.runID,          // RunId
		spec.Label(),     // Name
		spec.SourceFile,  // SourceFile
		rt,               // RetentionTime
		spec.PrecursorMZ, // PrecursorMass
		mzBlob,           // blobMass
		intBlob,          // blobIntensity
	)
	if err != nil {
		return fmt.Errorf("failed to insert spectrum: %w", err)
	}
	spectrumID, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read spectrum id: %w", err)
	}

	groupStmt := tx.Stmt(w.groupStmt)
	memberStmt := tx.Stmt(w.memberStmt)
	for _, g := range groups {
		seed := spec.Peaks[g.Seed()]
		res, err := groupStmt.Exec(spectrumID, g.Seed(), seed.MZ, seed.Intensity, len(g.Members()))
		if err != nil {
			return fmt.Errorf("failed to insert group: %w", err)
		}
		groupID, err := res.LastInsertId()
		if err != nil {
			return fmt.Errorf("failed to read group id: %w", err)
		}

		for k := 1; k < len(g.Indices); k++ {
			peak := spec.Peaks[g.Indices[k]]
			_, err := memberStmt.Exec(groupID, g.Indices[k], peak.MZ, peak.Intensity, strings.Join(g.Labels[k], ";"))
			if err != nil {
				return fmt.Errorf("failed to insert member: %w", err)
			}
		}
	}
	return nil
}

// encodePeaksFloat64 encodes peak data as little-endian float64 blob
func encodePeaksFloat64(peaks []core.Peak, useMZ bool) []byte {
	buf := make([]byte, len(peaks)*8)
	for i, peak := range peaks {
		var value float64
		if useMZ {
			value = peak.MZ
		} else {
			value = peak.Intensity
		}
		binary.LittleEndian.PutUint64(buf[i*8:], math.Float64bits(value))
	}
	return buf
}

// Finalize updates the run totals and closes the database. The statements
// and the database are closed even when the update fails. Calling it again
// is a no-op.
func (w *Writer) Finalize() (err error) {
	if w.closed {
		return nil
	}
	w.closed = true
	defer func() {
		err = errors.Join(err, w.closeDB())
	}()

	_, err = w.db.Exec(`
		UPDATE RunTable SET NoofSpectra = ?, NoofGroups = ? WHERE RunId = ?
	`, w.spectra, w.groups, w.runID)
	if err != nil {
		return fmt.Errorf("failed to update run: %w", err)
	}
	return nil
}

func (w *Writer) closeDB() error {
	var errs []error
	for _, stmt := range []*sql.Stmt{w.spectrumStmt, w.groupStmt, w.memberStmt} {
		if stmt != nil {
			errs = append(errs, stmt.Close())
		}
	}
	if err := w.db.Close(); err != nil {
		errs = append(errs, fmt.Errorf("failed to close database: %w", err))
	}
	return errors.Join(errs...)
}

// Close closes the database connection (alias for Finalize)
func (w *Writer) Close() error {
	return w.Finalize()
}
