package tags

import (
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/tidwall/gjson"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"github.com/dshills/exiftoolbridge/internal/exiftool"
)

const startTimeout = 500 * time.Millisecond

// Adapter drives one Supervisor through a single metadata-extraction
// command and projects its completion event into a ParsedSnapshot (spec
// §4.3). It holds a non-owning reference to the Supervisor for the
// duration of one Load call.
type Adapter struct {
	sup *exiftool.Supervisor

	mu          sync.Mutex
	translate   bool
	snapshot    *ParsedSnapshot
	errorString string
}

// NewAdapter returns an Adapter driving sup. sup is not started here;
// Load starts it if needed.
func NewAdapter(sup *exiftool.Supervisor) *Adapter {
	return &Adapter{sup: sup, snapshot: newParsedSnapshot()}
}

// SetTranslations selects whether Load re-keys tags into a translated
// namespace. The translated path is an open design question upstream
// (see the project's design notes): this adapter preserves raw,
// untranslated behaviour regardless of the toggle, matching the
// requirement that raw behaviour survive unchanged when translation is
// off, and is deliberately conservative when it is on.
func (a *Adapter) SetTranslations(enabled bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.translate = enabled
}

// CurrentParsedPath returns the SourceFile path from the last Load.
func (a *Adapter) CurrentParsedPath() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.snapshot.SourceFile
}

// CurrentParsedTags returns the tag map from the last Load.
func (a *Adapter) CurrentParsedTags() map[string]TagRecord {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.snapshot.Tags
}

// CurrentIgnoredTags returns the tags whose JSON key shape was not one of
// the recognized four/five-segment forms from the last Load.
func (a *Adapter) CurrentIgnoredTags() map[string]TagRecord {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.snapshot.Ignored
}

// CurrentErrorString returns the last recorded error message, if any.
func (a *Adapter) CurrentErrorString() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.errorString
}

// Load extracts metadata from path and reports whether it succeeded.
// A parse failure after a successful command still reports success with
// an empty tag map, per spec §4.3.
func (a *Adapter) Load(path string) bool {
	a.mu.Lock()
	a.snapshot = newParsedSnapshot()
	a.errorString = ""
	a.mu.Unlock()

	if _, err := os.Stat(path); err != nil {
		a.setError(err.Error())
		return false
	}

	if !a.sup.IsRunning() {
		if err := a.sup.Start(); err != nil {
			a.setError(err.Error())
			return false
		}
	}

	if !a.sup.WaitStarted(startTimeout) {
		a.sup.Kill()
		a.setError("exiftool process cannot be started")
		return false
	}

	args := []string{"-json", "-binary", "-G:0:1:2:4:6", "-n", "-l", filepath.FromSlash(path)}
	id := a.sup.Command(args)
	if id == 0 {
		a.setError("exiftool parsing command cannot be sent")
		return false
	}

	for ev := range a.sup.Events() {
		switch ev.Type {
		case exiftool.EventCommandCompleted:
			if ev.CommandID != id {
				continue
			}
			a.applyCompletion(ev.Stdout)
			return true

		case exiftool.EventSyncError:
			if ev.CommandID != id {
				continue
			}
			a.setError("exiftool response channels desynchronized")
			return false

		case exiftool.EventError:
			a.setError(ev.Message)
			return false

		case exiftool.EventFinished:
			a.setError("exiftool process finished before command completed")
			return false
		}
	}

	a.setError("exiftool event stream closed before command completed")
	return false
}

func (a *Adapter) setError(msg string) {
	a.mu.Lock()
	a.errorString = msg
	a.mu.Unlock()
}

// applyCompletion parses stdout as exiftool's one-object-per-file JSON
// array and populates the snapshot (spec §4.3 "load(path)").
func (a *Adapter) applyCompletion(stdout []byte) {
	snapshot := newParsedSnapshot()

	clean := stripBOM(stdout)
	first := gjson.ParseBytes(clean).Get("0")

	first.ForEach(func(key, value gjson.Result) bool {
		pk := splitKey(key.String())

		if pk.isSourceFile {
			snapshot.SourceFile = value.String()
			return true
		}

		if pk.ignored {
			snapshot.Ignored[key.String()] = TagRecord{
				ExiftoolName: key.String(),
				ValueRaw:     normalizeValue(value.Get("val").String()),
				Type:         pk.tagType,
				Description:  value.Get("desc").String(),
			}
			return true
		}

		snapshot.Tags[pk.dottedName] = TagRecord{
			ExiftoolName: pk.dottedName,
			ValueRaw:     normalizeValue(value.Get("val").String()),
			Type:         pk.tagType,
			Description:  value.Get("desc").String(),
		}

		return true
	})

	a.mu.Lock()
	a.snapshot = snapshot
	a.mu.Unlock()
}

// stripBOM removes a leading UTF-8 byte-order mark, if present, before
// handing bytes to gjson (exiftool emits one on some platforms/locales).
func stripBOM(data []byte) []byte {
	out, _, err := transform.Bytes(unicode.BOMOverride(unicode.UTF8.NewDecoder()), data)
	if err != nil {
		return data
	}
	return out
}
