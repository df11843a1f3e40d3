package catalog

import (
	"bufio"
	"fmt"
	"io"
	"strconv"

	"smfdb/internal/dbtype"
)

// Load reads the whitespace-delimited catalog stream:
//
//	DbMeta:    name N { TabMeta }xN
//	TabMeta:   name M { ColMeta }xM K { name IndexMeta }xK
//	ColMeta:   tab name type len offset
//	IndexMeta: tab tot_len num_cols { ColMeta }xnum_cols
//
// matching the three-stage discovery walk (tables, then columns, then
// indexes) the teacher's introspection code used against a live database,
// here walking a token stream instead of information_schema rows.
func Load(r io.Reader) (*Database, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 1024*1024)
	sc.Split(bufio.ScanWords)

	next := func() (string, error) {
		if !sc.Scan() {
			if err := sc.Err(); err != nil {
				return "", &dbtype.IOError{Op: "catalog.Load", Err: err}
			}
			return "", &dbtype.IOError{Op: "catalog.Load", Err: io.ErrUnexpectedEOF}
		}
		return sc.Text(), nil
	}
	nextInt := func() (int, error) {
		s, err := next()
		if err != nil {
			return 0, err
		}
		n, err := strconv.Atoi(s)
		if err != nil {
			return 0, &dbtype.IOError{Op: "catalog.Load", Err: err}
		}
		return n, nil
	}

	dbName, err := next()
	if err != nil {
		return nil, err
	}
	db := NewDatabase(dbName)

	nTables, err := nextInt()
	if err != nil {
		return nil, err
	}

	for i := 0; i < nTables; i++ {
		tabName, err := next()
		if err != nil {
			return nil, err
		}
		tab := NewTabMeta(tabName)

		nCols, err := nextInt()
		if err != nil {
			return nil, err
		}
		for j := 0; j < nCols; j++ {
			col, err := readColMeta(next, nextInt)
			if err != nil {
				return nil, err
			}
			tab.ColMap[col.Name] = len(tab.Cols)
			tab.Cols = append(tab.Cols, col)
		}

		nIdx, err := nextInt()
		if err != nil {
			return nil, err
		}
		for k := 0; k < nIdx; k++ {
			if _, err := next(); err != nil { // index name, unused by executors
				return nil, err
			}
			idx, err := readIndexMeta(next, nextInt)
			if err != nil {
				return nil, err
			}
			tab.Indexes = append(tab.Indexes, idx)
		}

		db.Tables[tab.Name] = tab
	}
	return db, nil
}

func readColMeta(next func() (string, error), nextInt func() (int, error)) (ColMeta, error) {
	tab, err := next()
	if err != nil {
		return ColMeta{}, err
	}
	name, err := next()
	if err != nil {
		return ColMeta{}, err
	}
	kindStr, err := next()
	if err != nil {
		return ColMeta{}, err
	}
	length, err := nextInt()
	if err != nil {
		return ColMeta{}, err
	}
	offset, err := nextInt()
	if err != nil {
		return ColMeta{}, err
	}
	kind, err := parseKind(kindStr)
	if err != nil {
		return ColMeta{}, err
	}
	return ColMeta{TabName: tab, Name: name, Kind: kind, Len: length, Offset: offset}, nil
}

func readIndexMeta(next func() (string, error), nextInt func() (int, error)) (IndexMeta, error) {
	tab, err := next()
	if err != nil {
		return IndexMeta{}, err
	}
	if _, err := nextInt(); err != nil { // tot_len, recomputed from Cols below
		return IndexMeta{}, err
	}
	numCols, err := nextInt()
	if err != nil {
		return IndexMeta{}, err
	}
	idx := IndexMeta{TabName: tab}
	for i := 0; i < numCols; i++ {
		col, err := readColMeta(next, nextInt)
		if err != nil {
			return IndexMeta{}, err
		}
		idx.Cols = append(idx.Cols, col)
	}
	return idx, nil
}

func parseKind(s string) (dbtype.Kind, error) {
	switch s {
	case "INT":
		return dbtype.KindInt32, nil
	case "FLOAT":
		return dbtype.KindFloat32, nil
	case "CHAR":
		return dbtype.KindFixedStr, nil
	default:
		return 0, fmt.Errorf("catalog.Load: unknown column type %q", s)
	}
}

// Save writes the catalog back out in the same stream format Load reads.
func Save(w io.Writer, db *Database) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "%s %d\n", db.Name, len(db.Tables))
	for _, tab := range db.Tables {
		fmt.Fprintf(bw, "%s %d\n", tab.Name, len(tab.Cols))
		for _, c := range tab.Cols {
			writeColMeta(bw, c)
		}
		fmt.Fprintf(bw, "%d\n", len(tab.Indexes))
		for _, idx := range tab.Indexes {
			fmt.Fprintf(bw, "%s\n", idx.IndexFileName())
			fmt.Fprintf(bw, "%s %d %d\n", idx.TabName, idx.ColTotLen(), idx.ColNum())
			for _, c := range idx.Cols {
				writeColMeta(bw, c)
			}
		}
	}
	if err := bw.Flush(); err != nil {
		return &dbtype.IOError{Op: "catalog.Save", Err: err}
	}
	return nil
}

func writeColMeta(bw *bufio.Writer, c ColMeta) {
	fmt.Fprintf(bw, "%s %s %s %d %d\n", c.TabName, c.Name, c.Kind, c.Len, c.Offset)
}
