package downloader

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/agnivade/levenshtein"
	"github.com/bogem/id3v2/v2"
	"github.com/gosimple/slug"
	"github.com/spotDL/spotify-downloader-sub000/entity"
	"github.com/spotDL/spotify-downloader-sub000/entity/id3"
	"github.com/spotDL/spotify-downloader-sub000/util"
)

// preflight decides, without any network activity, whether the song
// has already been downloaded: by archive entry, by its expected
// output path, by an embedded catalog id, or by a fuzzy filename
// match tolerating minor naming drift between runs. The prompt
// policy hands the final call to the caller.
func (syncer *Syncer) preflight(song *entity.Song) (string, bool) {
	final := filepath.Join(syncer.options.Output, song.RenderPath(syncer.options.PathTemplate, syncer.options.Format))

	if syncer.archive != nil && syncer.archive.Has(song.ID) {
		return final, true
	}
	if syncer.options.Overwrite == OverwriteForce {
		return final, false
	}

	exists := false
	if _, err := os.Stat(final); err == nil {
		exists = true
	} else {
		exists = syncer.fuzzyExists(song, final)
	}
	if !exists {
		return final, false
	}
	if syncer.options.Overwrite == OverwritePrompt && syncer.options.Confirm != nil {
		return final, !syncer.options.Confirm(song, final)
	}
	return final, true
}

// fuzzyExists scans the destination directory for a file whose
// normalized name is close enough to the expected one. The
// normalization lowercases, strips diacritics and collapses
// punctuation, so "Song (feat. X)" and "song feat x" compare equal.
func (syncer *Syncer) fuzzyExists(song *entity.Song, final string) bool {
	var (
		directory = filepath.Dir(final)
		extension = filepath.Ext(final)
		expected  = normalizeName(final)
	)

	entries, err := os.ReadDir(directory)
	if err != nil {
		return false
	}
	for _, entry := range entries {
		if entry.IsDir() || !strings.EqualFold(filepath.Ext(entry.Name()), extension) {
			continue
		}
		if taggedWith(filepath.Join(directory, entry.Name()), song.ID) {
			return true
		}
		if similarity(expected, normalizeName(entry.Name())) >= syncer.options.FuzzyThreshold {
			return true
		}
	}
	return false
}

// taggedWith reports whether the file already carries the song's
// catalog id in its tag, catching files renamed beyond what the
// fuzzy match tolerates.
func taggedWith(path, id string) bool {
	tag, err := id3.Open(path, id3v2.Options{Parse: true})
	if err != nil {
		return false
	}
	defer tag.Close()
	return tag.SongID() == id
}

func normalizeName(path string) string {
	return slug.Make(util.FileBaseStem(path))
}

func similarity(a, b string) float64 {
	if a == b {
		return 1
	}
	longest := len(a)
	if len(b) > longest {
		longest = len(b)
	}
	if longest == 0 {
		return 1
	}
	return 1 - float64(levenshtein.ComputeDistance(a, b))/float64(longest)
}
