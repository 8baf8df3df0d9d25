package backend

import (
	"bufio"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"gioui.org/x/explorer"
	"git.sr.ht/~gioverse/skel/stream"
	"github.com/fsnotify/fsnotify"
)

// Session is one logical data-loading lifetime: a file opened or a feed
// launched. Each emission carries a complete snapshot of the table so far.
type Session struct {
	ID    string
	Table TableView
	Mode  Mode
	Err   error
}

// Mode indicates how a session sources its rows.
type Mode uint8

const (
	ModeNone Mode = iota
	// ModeReplaying reads rows from a file on disk, following appends.
	ModeReplaying
	// ModeFeeding consumes rows from a launched feed process and mirrors
	// them to a file for later replay.
	ModeFeeding
)

func (m Mode) String() string {
	switch m {
	case ModeNone:
		return "none"
	case ModeReplaying:
		return "replaying"
	case ModeFeeding:
		return "feeding"
	default:
		return "unknown"
	}
}

type inputKind uint8

const (
	kindHeadings inputKind = iota
	kindRow
)

type inputData struct {
	kind     inputKind
	headings []string
	row      []string
}

// Datasource manages data sessions and exposes them as streams of table
// snapshots.
type Datasource struct {
	pool   *stream.MutationPool[string, Session]
	appCtx context.Context
}

func NewDatasource(appCtx context.Context, mutator *stream.Mutator) *Datasource {
	return &Datasource{
		pool:   stream.NewMutationPool[string, Session](mutator),
		appCtx: appCtx,
	}
}

func (d *Datasource) SessionStream(ctx context.Context) <-chan map[string]*stream.Mutation[Session] {
	return d.pool.Stream(ctx)
}

func (d *Datasource) getMutation(ctx context.Context, sessionID string) *stream.Mutation[Session] {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	return (<-d.SessionStream(ctx))[sessionID]
}

func (d *Datasource) StreamSession(ctx context.Context, sessionID string) <-chan Session {
	return d.getMutation(ctx, sessionID).Stream(ctx)
}

// CurrentSessionStream follows whichever session started most recently,
// switching over as newer sessions appear. Session IDs sort
// lexicographically by creation time, so the greatest ID is the newest.
func (d *Datasource) CurrentSessionStream(ctx context.Context) <-chan Session {
	return stream.Multiplex(d.pool.Stream(ctx), func(ctx context.Context, state string, mutations map[string]*stream.Mutation[Session]) (<-chan Session, string) {
		var chosen *stream.Mutation[Session]
		newest := state
		for _, m := range mutations {
			subCtx, cancel := context.WithCancel(ctx)
			session := <-m.Stream(subCtx)
			cancel()
			if session.ID > newest {
				newest = session.ID
				chosen = m
			}
		}
		if chosen == nil {
			return nil, state
		}
		return chosen.Stream(ctx), newest
	})
}

func generateSessionID() string {
	return strings.Replace(time.Now().UTC().Format("20060102150405.000000000"), ".", "", 1)
}

func sessionFileFor(sessionID string) string {
	return "timeslice-" + sessionID + ".csv"
}

// recordSession consumes CSV rows from src, accumulating them into a table
// and publishing a snapshot per batch of rows that arrives. Feed sessions
// are mirrored to a file so that they can be replayed later.
func (d *Datasource) recordSession(sessionID string, mode Mode, src io.ReadCloser) *stream.Mutation[Session] {
	box, _ := stream.Mutate(d.pool, sessionID, func(ctx context.Context) (values <-chan Session) {
		out := make(chan Session, 1)
		go func() {
			defer close(out)
			session := Session{
				ID:   sessionID,
				Mode: mode,
			}
			tableName := sessionID
			// Each session owns its watcher so that concurrent sessions
			// never consume one another's write notifications. Closing it
			// unparks the session's reader when the session ends.
			var watcher *fsnotify.Watcher
			if f, ok := src.(interface{ Name() string }); ok {
				fileName := f.Name()
				tableName = strings.TrimSuffix(filepath.Base(fileName), filepath.Ext(fileName))
				watcher = watchForAppends(fileName)
			}
			if watcher != nil {
				defer watcher.Close()
			}
			// Emit the empty session immediately.
			out <- session

			rows := make(chan inputData, 1024)
			go d.readTable(src, watcher, rows)

			var mirrorFile *os.File
			var mirrorWriter *bufio.Writer
			var csvWriter *csv.Writer
			var err error
			if mode == ModeFeeding {
				mirrorFile, err = os.Create(sessionFileFor(sessionID))
				if err != nil {
					session.Err = err
					out <- session
					return
				}
				mirrorWriter = bufio.NewWriter(mirrorFile)
				csvWriter = csv.NewWriter(mirrorWriter)
			}
			flushAll := func() {
				if mode == ModeFeeding {
					csvWriter.Flush()
					err := mirrorWriter.Flush()
					err = errors.Join(err, mirrorFile.Close())
					if err != nil {
						session.Err = err
						out <- session
					}
				}
			}
			handle := func(in inputData) bool {
				var record []string
				switch in.kind {
				case kindHeadings:
					session.Table = NewTableView(tableName, in.headings)
					record = in.headings
				case kindRow:
					session.Table.AppendRow(in.row)
					record = in.row
				}
				if mode == ModeFeeding {
					if err := csvWriter.Write(record); err != nil {
						session.Err = err
						out <- session
						return false
					}
				}
				return true
			}
			for {
				select {
				case <-ctx.Done():
					flushAll()
					return
				case in := <-rows:
					if !handle(in) {
						return
					}
					// Drain whatever else arrived so that one snapshot
					// covers the whole batch.
				drained:
					for {
						select {
						case in := <-rows:
							if !handle(in) {
								return
							}
						default:
							break drained
						}
					}
					if mode == ModeFeeding {
						csvWriter.Flush()
					}
					snapshot := session
					snapshot.Table = session.Table.Clone()
					out <- snapshot
				}
			}
		}()
		return out
	})
	return box
}

// LoadFromFile prompts for a data file and begins replaying it.
func (d *Datasource) LoadFromFile(expl *explorer.Explorer) (string, error) {
	file, err := expl.ChooseFile()
	if err != nil {
		return "", err
	}
	return d.LoadFromStream(ModeReplaying, file), nil
}

// OpenPath begins replaying the file at path.
func (d *Datasource) OpenPath(path string) (string, error) {
	file, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed opening data file: %w", err)
	}
	return d.LoadFromStream(ModeReplaying, file), nil
}

func (d *Datasource) LoadFromStream(mode Mode, file io.ReadCloser) string {
	id := generateSessionID()
	return d.LoadFromStreamWithID(id, mode, file)
}

func (d *Datasource) LoadFromStreamWithID(sessionID string, mode Mode, file io.ReadCloser) string {
	d.recordSession(sessionID, mode, file)
	return sessionID
}

// LaunchFeed starts the demo feed generator and consumes its output as a
// new feeding session.
func (d *Datasource) LaunchFeed() (string, error) {
	feedReader, err := launchFeed(d.appCtx)
	if err != nil {
		return "", err
	}
	id := generateSessionID()
	d.recordSession(id, ModeFeeding, feedReader)
	return id, nil
}

func runFeedWithName(ctx context.Context, exeName string) (io.ReadCloser, error) {
	cmd := exec.CommandContext(ctx, exeName)
	out, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("failed acquiring stdout pipe: %w", err)
	}
	return out, cmd.Start()
}

func launchFeed(ctx context.Context) (io.ReadCloser, error) {
	const feedExeName = "timeslice-feed"
	execPath, err := os.Executable()
	if err == nil {
		feedExe := filepath.Join(filepath.Dir(execPath), feedExeName)
		if runtime.GOOS == "windows" {
			feedExe += ".exe"
		}
		log.Printf("Looking for %q", feedExe)
		output, err := runFeedWithName(ctx, feedExe)
		if err == nil {
			return output, nil
		}
	}

	log.Printf("Searching path for feed generator")
	feedExe, err := exec.LookPath(feedExeName)
	if err != nil {
		return nil, fmt.Errorf("unable to locate %q in $PATH: %w", feedExeName, err)
	}

	output, err := runFeedWithName(ctx, feedExe)
	if err != nil {
		return nil, fmt.Errorf("failed launching %q: %w", feedExe, err)
	}

	return output, nil
}

// watchForAppends builds a watcher on a session's backing file so that the
// session can park on EOF until more rows arrive. A source that cannot be
// watched gets no watcher and reads nothing past its first EOF.
func watchForAppends(fileName string) *fsnotify.Watcher {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		log.Printf("failed creating watcher for %q: %v", fileName, err)
		return nil
	}
	if err := watcher.Add(fileName); err != nil {
		log.Printf("failed watching %q for appended rows: %v", fileName, err)
		watcher.Close()
		return nil
	}
	return watcher
}

// readTable parses src as CSV, forwarding headings and then rows as they
// arrive. Cells are trimmed but otherwise uninterpreted here; parsing cell
// contents is the model builder's concern.
func (d *Datasource) readTable(source io.Reader, watcher *fsnotify.Watcher, rows chan inputData) {
	bufRead := NewLineReader(source)
	csvReader := csv.NewReader(bufRead)
	csvReader.TrimLeadingSpace = true
	csvReader.FieldsPerRecord = -1
	headings, err := csvReader.Read()
	if err != nil {
		log.Printf("failed reading table headings: %v", err)
		return
	}
	for i := range headings {
		headings[i] = strings.TrimSpace(headings[i])
	}
	rows <- inputData{kind: kindHeadings, headings: headings}
	// Continuously parse rows, parking on EOF until the watcher reports
	// new writes so that growing files behave as live feeds.
readLoop:
	for {
		rec, err := csvReader.Read()
		if err != nil {
			if errors.Is(err, io.EOF) && watcher != nil {
				for ev := range watcher.Events {
					if ev.Op == fsnotify.Write {
						continue readLoop
					}
				}
			}
			log.Printf("could not read table data: %v", err)
			return
		}
		for i := range rec {
			rec[i] = strings.TrimSpace(rec[i])
		}
		rows <- inputData{kind: kindRow, row: rec}
	}
}

// lineReader is a specialized reader that ensures only entire newline-delimited lines are
// read at a time. This is useful when attempting to parse a file that is being actively
// written to as a CSV, as you don't actually attempt to parse any partial lines.
type lineReader struct {
	r       *bufio.Reader
	partial []byte
}

var _ io.Reader = (*lineReader)(nil)

func NewLineReader(r io.Reader) *lineReader {
	return &lineReader{
		r: bufio.NewReader(r),
	}
}

func (l *lineReader) Read(b []byte) (int, error) {
	data, err := l.r.ReadBytes(byte('\n'))
	if err != nil {
		l.partial = append(l.partial, data...)
		return 0, io.EOF
	}
	var n int
	if len(l.partial) > 0 {
		n = copy(b, l.partial)
		l.partial = l.partial[:copy(l.partial, l.partial[n:])]
		b = b[n:]
	}
	return n + copy(b, data), nil
}
