package directory

import (
	"strconv"
	"time"

	"github.com/go-ldap/ldap/v3"

	"adlens/internal/domain"
)

// userAccountControl bit 2: ACCOUNTDISABLE.
const uacAccountDisable = 0x2

// filetimeEpochOffset is the number of 100ns intervals between the Windows
// FILETIME epoch (1601-01-01) and the Unix epoch (1970-01-01).
const filetimeEpochOffset = 116444736000000000

// entryToObject maps a search result entry to the domain model.
func entryToObject(e *ldap.Entry) *domain.DirectoryObject {
	obj := &domain.DirectoryObject{
		DN:             e.DN,
		Kind:           kindFromClasses(e.GetAttributeValues("objectClass")),
		Name:           e.GetAttributeValue("displayName"),
		SAMAccountName: e.GetAttributeValue("sAMAccountName"),
		Description:    e.GetAttributeValue("description"),
		Department:     e.GetAttributeValue("department"),
		Mail:           e.GetAttributeValue("mail"),
		Enabled:        true,
	}
	if obj.Name == "" {
		obj.Name = e.GetAttributeValue("cn")
	}

	if uac := e.GetAttributeValue("userAccountControl"); uac != "" {
		if flags, err := strconv.ParseInt(uac, 10, 64); err == nil {
			obj.Enabled = flags&uacAccountDisable == 0
		}
	}
	if ts := e.GetAttributeValue("lastLogonTimestamp"); ts != "" {
		if t, ok := parseFiletime(ts); ok {
			obj.LastActivity = &t
		}
	}
	return obj
}

// kindFromClasses maps objectClass values to an ObjectKind. AD computers
// carry the user class too, so computer is checked first.
func kindFromClasses(classes []string) domain.ObjectKind {
	isUser := false
	for _, c := range classes {
		switch c {
		case "computer":
			return domain.KindComputer
		case "group":
			return domain.KindGroup
		case "user", "person", "inetOrgPerson":
			isUser = true
		}
	}
	if isUser {
		return domain.KindUser
	}
	return domain.KindUnknown
}

// parseFiletime converts a Windows FILETIME string (100ns intervals since
// 1601-01-01) to a UTC time. Zero and unparsable values report !ok: AD uses
// 0 for "never".
func parseFiletime(s string) (time.Time, bool) {
	ft, err := strconv.ParseInt(s, 10, 64)
	if err != nil || ft <= 0 {
		return time.Time{}, false
	}
	return time.Unix(0, (ft-filetimeEpochOffset)*100).UTC(), true
}
