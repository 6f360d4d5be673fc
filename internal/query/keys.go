package query

import (
	"strconv"

	"github.com/nhle/vanta/internal/model"
)

// Key roots. Invalidate with a root and a user id to drop every variant.
const (
	Applications     = "applications"
	ApplicationNotes = "application-notes"
	Feed             = "feed"
	Notifications    = "notifications"
	Digest           = "digest"
	Tasks            = "tasks"
	Profile          = "profile"
	SearchPrefs      = "search-preferences"
	Resumes          = "resumes"
	ResumeDetail     = "resume-detail"
)

func ApplicationsKey(user string) Key { return Key{Applications, user} }
func NotificationsKey(user string) Key { return Key{Notifications, user} }
func DigestKey(user string) Key { return Key{Digest, user} }
func TasksKey(user string) Key { return Key{Tasks, user} }
func ProfileKey(user string) Key { return Key{Profile, user} }
func SearchPrefsKey(user string) Key { return Key{SearchPrefs, user} }
func ResumesKey(user string) Key { return Key{Resumes, user} }

// NotesKey is scoped to the application first so one application's notes
// can be invalidated alone.
func NotesKey(applicationID, user string) Key {
	return Key{ApplicationNotes, applicationID, user}
}

// ResumeKey identifies a parsed resume version.
func ResumeKey(id, user string) Key {
	return Key{ResumeDetail, id, user}
}

// FeedKey includes every filter so each page and filter combination is
// cached separately.
func FeedKey(user string, f model.FeedFilter) Key {
	return Key{
		Feed, user,
		f.Location,
		strconv.FormatBool(f.RemoteOnly),
		strconv.Itoa(f.Page),
		strconv.Itoa(f.Limit),
	}
}
