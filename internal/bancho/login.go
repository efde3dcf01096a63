package bancho

import (
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"
)

// LoginData is the parsed form of the ASCII login blob the client sends
// in its first request:
//
//	<username> '\n'
//	<password_md5> '\n'
//	<client_version> '|' <utc_offset> '|' <show_city> '|'
//	<path_md5> ':' <adapters> ':' <adapters_md5> ':' <uninstall_md5> ':' <disk_signature_md5> '|'
//	<allow_pms> '\n'
//
// ShowCity and AllowPMs are parsed but not consulted anywhere yet; they
// are kept on the session for forward compatibility.
type LoginData struct {
	Username         string
	PasswordMD5      string
	ClientVersion    string
	UTCOffset        int
	ShowCity         int
	AllowPMs         int
	PathMD5          string
	AdaptersString   string
	AdaptersMD5      string
	UninstallMD5     string
	DiskSignatureMD5 string
}

// ParseLoginData parses the login blob. All fields are required; any
// missing delimiter, non-UTF-8 byte or non-numeric integer field is an
// error.
func ParseLoginData(body []byte) (*LoginData, error) {
	if !utf8.Valid(body) {
		return nil, fmt.Errorf("login body is not valid UTF-8")
	}

	lines := strings.SplitN(string(body), "\n", 4)
	if len(lines) < 3 {
		return nil, fmt.Errorf("login body has %d lines, want 3", len(lines))
	}

	d := &LoginData{
		Username:    lines[0],
		PasswordMD5: lines[1],
	}

	info := strings.Split(lines[2], "|")
	if len(info) != 5 {
		return nil, fmt.Errorf("client info line has %d fields, want 5", len(info))
	}
	d.ClientVersion = info[0]

	var err error
	if d.UTCOffset, err = strconv.Atoi(info[1]); err != nil {
		return nil, fmt.Errorf("utc_offset %q is not a number", info[1])
	}
	if d.ShowCity, err = strconv.Atoi(info[2]); err != nil {
		return nil, fmt.Errorf("show_city %q is not a number", info[2])
	}

	hashes := strings.Split(info[3], ":")
	if len(hashes) != 5 {
		return nil, fmt.Errorf("client hashes field has %d parts, want 5", len(hashes))
	}
	d.PathMD5 = hashes[0]
	d.AdaptersString = hashes[1]
	d.AdaptersMD5 = hashes[2]
	d.UninstallMD5 = hashes[3]
	d.DiskSignatureMD5 = hashes[4]

	if d.AllowPMs, err = strconv.Atoi(info[4]); err != nil {
		return nil, fmt.Errorf("allow_pms %q is not a number", info[4])
	}

	return d, nil
}
