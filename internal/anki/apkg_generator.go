package anki

import (
	"archive/zip"
	"crypto/md5"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"codeberg.org/fkarsten/wortkiste/internal/card"
)

// Stable deck and note-type IDs: re-importing a regenerated package updates
// the existing notes instead of duplicating the note type.
const (
	deckID  = 2654323456
	modelID = 1634523456
)

// APKGGenerator creates Anki package files (.apkg) from assembled cards
type APKGGenerator struct {
	deckName     string
	audioDir     string
	cards        []card.Card
	mediaFiles   map[string]int // maps audio filename to media number
	mediaCounter int
}

// NewAPKGGenerator creates a new APKG generator. audioDir is where the
// resolved pronunciation files live.
func NewAPKGGenerator(deckName, audioDir string) *APKGGenerator {
	return &APKGGenerator{
		deckName:   deckName,
		audioDir:   audioDir,
		cards:      make([]card.Card, 0),
		mediaFiles: make(map[string]int),
	}
}

// AddCard adds a card to the generator
func (g *APKGGenerator) AddCard(c card.Card) {
	g.cards = append(g.cards, c)
}

// AddCards adds a batch of cards in order
func (g *APKGGenerator) AddCards(cards []card.Card) {
	g.cards = append(g.cards, cards...)
}

// Stats returns card counts for the summary output
func (g *APKGGenerator) Stats() (totalCards, withAudio int) {
	totalCards = len(g.cards)
	for _, c := range g.cards {
		if c.AudioFileName != "" {
			withAudio++
		}
	}
	return totalCards, withAudio
}

// GenerateAPKG creates an .apkg file
func (g *APKGGenerator) GenerateAPKG(outputPath string) error {
	// Build the package in a temp directory
	tempDir, err := os.MkdirTemp("", "anki_export_*")
	if err != nil {
		return fmt.Errorf("failed to create temp directory: %w", err)
	}
	defer os.RemoveAll(tempDir)

	// Copy media files FIRST (this populates g.mediaFiles map)
	if err := g.copyMediaFiles(tempDir); err != nil {
		return fmt.Errorf("failed to copy media files: %w", err)
	}

	if err := g.createMediaMapping(tempDir); err != nil {
		return fmt.Errorf("failed to create media mapping: %w", err)
	}

	dbPath := filepath.Join(tempDir, "collection.anki2")
	if err := g.createDatabase(dbPath); err != nil {
		return fmt.Errorf("failed to create database: %w", err)
	}

	if err := g.createZipPackage(tempDir, outputPath); err != nil {
		return fmt.Errorf("failed to create zip package: %w", err)
	}

	return nil
}

// createDatabase creates the Anki SQLite database
func (g *APKGGenerator) createDatabase(dbPath string) error {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := g.createTables(db); err != nil {
		return fmt.Errorf("failed to create tables: %w", err)
	}

	if err := g.insertCollection(db); err != nil {
		return fmt.Errorf("failed to insert collection: %w", err)
	}

	if err := g.insertNotesAndCards(db); err != nil {
		return fmt.Errorf("failed to insert notes and cards: %w", err)
	}

	return nil
}

// createTables creates the required Anki database tables
func (g *APKGGenerator) createTables(db *sql.DB) error {
	queries := []string{
		`CREATE TABLE col (
			id integer PRIMARY KEY,
			crt integer NOT NULL,
			mod integer NOT NULL,
			scm integer NOT NULL,
			ver integer NOT NULL,
			dty integer NOT NULL,
			usn integer NOT NULL,
			ls integer NOT NULL,
			conf text NOT NULL,
			models text NOT NULL,
			decks text NOT NULL,
			dconf text NOT NULL,
			tags text NOT NULL
		)`,
		`CREATE TABLE notes (
			id integer PRIMARY KEY,
			guid text NOT NULL,
			mid integer NOT NULL,
			mod integer NOT NULL,
			usn integer NOT NULL,
			tags text NOT NULL,
			flds text NOT NULL,
			sfld text NOT NULL,
			csum integer NOT NULL,
			flags integer NOT NULL,
			data text NOT NULL
		)`,
		`CREATE TABLE cards (
			id integer PRIMARY KEY,
			nid integer NOT NULL,
			did integer NOT NULL,
			ord integer NOT NULL,
			mod integer NOT NULL,
			usn integer NOT NULL,
			type integer NOT NULL,
			queue integer NOT NULL,
			due integer NOT NULL,
			ivl integer NOT NULL,
			factor integer NOT NULL,
			reps integer NOT NULL,
			lapses integer NOT NULL,
			left integer NOT NULL,
			odue integer NOT NULL,
			odid integer NOT NULL,
			flags integer NOT NULL,
			data text NOT NULL
		)`,
		`CREATE TABLE revlog (
			id integer PRIMARY KEY,
			cid integer NOT NULL,
			usn integer NOT NULL,
			ease integer NOT NULL,
			ivl integer NOT NULL,
			lastIvl integer NOT NULL,
			factor integer NOT NULL,
			time integer NOT NULL,
			type integer NOT NULL
		)`,
		`CREATE TABLE graves (
			usn integer NOT NULL,
			oid integer NOT NULL,
			type integer NOT NULL
		)`,
		`CREATE INDEX ix_notes_csum ON notes (csum)`,
		`CREATE INDEX ix_notes_usn ON notes (usn)`,
		`CREATE INDEX ix_cards_usn ON cards (usn)`,
		`CREATE INDEX ix_cards_nid ON cards (nid)`,
		`CREATE INDEX ix_cards_sched ON cards (did, queue, due)`,
		`CREATE INDEX ix_revlog_usn ON revlog (usn)`,
		`CREATE INDEX ix_revlog_cid ON revlog (cid)`,
	}

	for _, query := range queries {
		if _, err := db.Exec(query); err != nil {
			return fmt.Errorf("failed to execute query: %w", err)
		}
	}

	return nil
}

// insertCollection inserts the collection metadata
func (g *APKGGenerator) insertCollection(db *sql.DB) error {
	now := time.Now().Unix()

	decks := map[string]interface{}{
		"1": map[string]interface{}{
			"id":               1,
			"name":             "Default",
			"mod":              now,
			"desc":             "",
			"collapsed":        false,
			"dyn":              0,
			"conf":             1,
			"usn":              0,
			"newToday":         []int{0, 0},
			"revToday":         []int{0, 0},
			"lrnToday":         []int{0, 0},
			"timeToday":        []int{0, 0},
			"browserCollapsed": false,
			"extendNew":        10,
			"extendRev":        50,
		},
		fmt.Sprintf("%d", int64(deckID)): map[string]interface{}{
			"id":               int64(deckID),
			"name":             g.deckName,
			"mod":              now,
			"desc":             "German vocabulary cards created by wortkiste",
			"collapsed":        false,
			"dyn":              0,
			"conf":             1,
			"usn":              0,
			"newToday":         []int{0, 0},
			"revToday":         []int{0, 0},
			"lrnToday":         []int{0, 0},
			"timeToday":        []int{0, 0},
			"browserCollapsed": false,
			"extendNew":        10,
			"extendRev":        50,
		},
	}
	decksJSON, _ := json.Marshal(decks)

	models := map[string]interface{}{
		fmt.Sprintf("%d", int64(modelID)): g.createNoteTypeConfig(),
	}
	modelsJSON, _ := json.Marshal(models)

	conf := map[string]interface{}{
		"nextPos":       1,
		"estTimes":      true,
		"activeDecks":   []int64{1},
		"sortType":      "noteFld",
		"sortBackwards": false,
		"addToCur":      true,
		"curDeck":       1,
		"newSpread":     0,
		"dueCounts":     true,
		"collapseTime":  1200,
		"timeLim":       0,
		"schedVer":      1,
		"curModel":      fmt.Sprintf("%d", int64(modelID)),
		"dayLearnFirst": false,
	}
	confJSON, _ := json.Marshal(conf)

	dconf := map[string]interface{}{
		"1": map[string]interface{}{
			"id":   1,
			"name": "Default",
			"dyn":  0,
			"new": map[string]interface{}{
				"delays":        []int{1, 10},
				"ints":          []int{1, 4, 7},
				"initialFactor": 2500,
				"perDay":        20,
				"order":         1,
				"bury":          true,
				"separate":      true,
			},
			"lapse": map[string]interface{}{
				"delays":      []int{10},
				"mult":        0,
				"minInt":      1,
				"leechFails":  8,
				"leechAction": 0,
			},
			"rev": map[string]interface{}{
				"perDay":   100,
				"ease4":    1.3,
				"fuzz":     0.05,
				"maxIvl":   36500,
				"ivlFct":   1,
				"bury":     true,
				"minSpace": 1,
			},
			"timer":    0,
			"maxTaken": 60,
			"usn":      0,
			"mod":      now,
			"autoplay": true,
			"replayq":  true,
		},
	}
	dconfJSON, _ := json.Marshal(dconf)

	query := `INSERT INTO col VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := db.Exec(query,
		1,        // id
		now,      // crt
		now*1000, // mod
		now*1000, // scm
		11,       // ver (schema version)
		0,        // dty
		0,        // usn
		0,        // ls
		string(confJSON),
		string(modelsJSON),
		string(decksJSON),
		string(dconfJSON),
		"{}", // tags
	)
	return err
}

// createNoteTypeConfig creates the note type configuration: four fields and
// two templates, with the reverse card conditional on the IsWord flag.
func (g *APKGGenerator) createNoteTypeConfig() map[string]interface{} {
	return map[string]interface{}{
		"id":    int64(modelID),
		"name":  "German Vocabulary (wortkiste)",
		"type":  0,
		"mod":   time.Now().Unix(),
		"usn":   -1,
		"sortf": 0,
		"did":   int64(deckID),
		"req":   [][]interface{}{{0, "all", []int{0}}, {1, "all", []int{3}}},
		"vers":  []int{},
		"tags":  []string{},
		"latexPre": `\documentclass[12pt]{article}
\special{papersize=3in,5in}
\usepackage[utf8]{inputenc}
\usepackage{amssymb,amsmath}
\pagestyle{empty}
\setlength{\parindent}{0in}
\begin{document}`,
		"latexPost": `\end{document}`,
		"flds": []map[string]interface{}{
			{
				"name":   "Question",
				"ord":    0,
				"sticky": false,
				"rtl":    false,
				"font":   "Arial",
				"size":   20,
				"media":  []string{},
			},
			{
				"name":   "Answer",
				"ord":    1,
				"sticky": false,
				"rtl":    false,
				"font":   "Arial",
				"size":   20,
				"media":  []string{},
			},
			{
				"name":   "Tip",
				"ord":    2,
				"sticky": false,
				"rtl":    false,
				"font":   "Arial",
				"size":   16,
				"media":  []string{},
			},
			{
				"name":   "IsWord",
				"ord":    3,
				"sticky": false,
				"rtl":    false,
				"font":   "Arial",
				"size":   20,
				"media":  []string{},
			},
		},
		"tmpls": []map[string]interface{}{
			{
				"name":  "German -> English",
				"ord":   0,
				"qfmt":  `{{Question}}`,
				"afmt":  `{{FrontSide}}<hr id="answer">{{Answer}}<br><br>{{#Tip}}💡 <i>{{Tip}}</i>{{/Tip}}`,
				"did":   nil,
				"bqfmt": "",
				"bafmt": "",
			},
			{
				"name":  "English -> German (Reversed)",
				"ord":   1,
				"qfmt":  `{{#IsWord}}{{Answer}}<br><br><small style="color:gray">(What is this in German?)</small>{{/IsWord}}`,
				"afmt":  `{{FrontSide}}<hr id="answer">{{Question}}<br><br>{{#Tip}}💡 <i>{{Tip}}</i>{{/Tip}}`,
				"did":   nil,
				"bqfmt": "",
				"bafmt": "",
			},
		},
		"css": g.getCSS(),
	}
}

// getCSS returns the card styling
func (g *APKGGenerator) getCSS() string {
	return `.card {
 font-family: arial;
 font-size: 20px;
 text-align: center;
 color: black;
 background-color: white;
}`
}

// insertNotesAndCards inserts all notes and cards into the database. Every
// note gets a forward card; word notes additionally get the reverse card
// that the IsWord-conditional template renders.
func (g *APKGGenerator) insertNotesAndCards(db *sql.DB) error {
	now := time.Now()

	for i, c := range g.cards {
		// Leave space for 2 cards per note
		noteID := now.UnixMilli() + int64(i*3)
		cardID1 := noteID + 1
		cardID2 := noteID + 2

		front, back, tip, isWord := card.Fields(c)

		// Join fields with the Anki field separator (ASCII 31)
		fields := strings.Join([]string{front, back, tip, isWord}, "\x1f")

		// GUID derived from the source text so a re-import updates the
		// existing note
		guid := fmt.Sprintf("wk_%x", md5.Sum([]byte(c.SourceText)))[:18]

		noteQuery := `INSERT INTO notes VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
		_, err := db.Exec(noteQuery,
			noteID,         // id
			guid,           // guid
			int64(modelID), // mid
			now.Unix(),     // mod
			-1,             // usn
			"",             // tags
			fields,         // flds
			front,          // sfld (sort field)
			0,              // csum
			0,              // flags
			"",             // data
		)
		if err != nil {
			return fmt.Errorf("failed to insert note: %w", err)
		}

		cardQuery := `INSERT INTO cards VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
		_, err = db.Exec(cardQuery,
			cardID1,       // id
			noteID,        // nid
			int64(deckID), // did
			0,             // ord (forward template)
			now.Unix(),    // mod
			-1,            // usn
			0,             // type (0=new)
			0,             // queue (0=new)
			i+1,           // due (position for new cards)
			0,             // ivl
			0,             // factor
			0,             // reps
			0,             // lapses
			0,             // left
			0,             // odue
			0,             // odid
			0,             // flags
			"",            // data
		)
		if err != nil {
			return fmt.Errorf("failed to insert card: %w", err)
		}

		if isWord == "" {
			continue
		}

		_, err = db.Exec(cardQuery,
			cardID2,       // id
			noteID,        // nid
			int64(deckID), // did
			1,             // ord (reverse template)
			now.Unix(),    // mod
			-1,            // usn
			0,             // type
			0,             // queue
			i+1,           // due
			0,             // ivl
			0,             // factor
			0,             // reps
			0,             // lapses
			0,             // left
			0,             // odue
			0,             // odid
			0,             // flags
			"",            // data
		)
		if err != nil {
			return fmt.Errorf("failed to insert reverse card: %w", err)
		}
	}

	return nil
}

// copyMediaFiles copies referenced audio files and assigns them numbers
func (g *APKGGenerator) copyMediaFiles(tempDir string) error {
	for _, c := range g.cards {
		if c.AudioFileName == "" {
			continue
		}

		srcPath := filepath.Join(g.audioDir, c.AudioFileName)
		if !fileExists(srcPath) {
			continue
		}

		if _, exists := g.mediaFiles[c.AudioFileName]; !exists {
			targetPath := filepath.Join(tempDir, fmt.Sprintf("%d", g.mediaCounter))
			if err := copyFile(srcPath, targetPath); err != nil {
				return fmt.Errorf("failed to copy audio file %s: %w", srcPath, err)
			}
			g.mediaFiles[c.AudioFileName] = g.mediaCounter
			g.mediaCounter++
		}
	}

	return nil
}

// createMediaMapping creates the media mapping JSON file
func (g *APKGGenerator) createMediaMapping(tempDir string) error {
	// Reverse mapping (number -> filename)
	mapping := make(map[string]string)
	for filename, num := range g.mediaFiles {
		mapping[fmt.Sprintf("%d", num)] = filename
	}

	data, err := json.Marshal(mapping)
	if err != nil {
		return err
	}

	return os.WriteFile(filepath.Join(tempDir, "media"), data, 0644)
}

// createZipPackage creates the final .apkg zip file
func (g *APKGGenerator) createZipPackage(tempDir, outputPath string) error {
	zipFile, err := os.Create(outputPath)
	if err != nil {
		return err
	}
	defer zipFile.Close()

	archive := zip.NewWriter(zipFile)
	defer archive.Close()

	return filepath.Walk(tempDir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}

		if info.IsDir() {
			return nil
		}

		relPath, err := filepath.Rel(tempDir, path)
		if err != nil {
			return err
		}

		writer, err := archive.Create(relPath)
		if err != nil {
			return err
		}

		file, err := os.Open(path)
		if err != nil {
			return err
		}
		defer file.Close()

		_, err = io.Copy(writer, file)
		return err
	})
}

// Helper functions

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func copyFile(src, dst string) error {
	srcFile, err := os.Open(src)
	if err != nil {
		return err
	}
	defer srcFile.Close()

	dstFile, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer dstFile.Close()

	_, err = io.Copy(dstFile, srcFile)
	return err
}
