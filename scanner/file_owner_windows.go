//go:build windows
// +build windows

package scanner

import (
	"os"

	"golang.org/x/sys/windows"
)

func getFileOwner(path string, info os.FileInfo) (string, error) {
	sd, err := windows.GetNamedSecurityInfo(
		path,
		windows.SE_FILE_OBJECT,
		windows.OWNER_SECURITY_INFORMATION,
	)
	if err != nil {
		return "", err
	}
	owner, _, err := sd.Owner()
	if err != nil {
		return "", err
	}
	account, domain, _, err := owner.LookupAccount("")
	if err != nil {
		return owner.String(), nil
	}
	if domain != "" {
		return domain + `\` + account, nil
	}
	return account, nil
}
