package netrc

import (
	"bufio"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/mitchellh/go-homedir"

	"github.com/daedaleanai/uvmgen/log"
)

type BasicAuth struct {
	User     string
	Password string
}

// Netrc holds the credentials of a netrc file by machine name.
type Netrc struct {
	machines map[string]BasicAuth
}

// Parse reads netrc entries from `r`. Both the one-entry-per-line layout
// and the single-line `machine m login l password p` layout are understood.
func Parse(r io.Reader) (*Netrc, error) {
	n := &Netrc{machines: map[string]BasicAuth{}}

	currentMachine := ""
	scanner := bufio.NewScanner(r)
	scanner.Split(bufio.ScanWords)

	var pending string
	for scanner.Scan() {
		token := scanner.Text()
		switch pending {
		case "machine":
			currentMachine = token
			if _, ok := n.machines[currentMachine]; !ok {
				n.machines[currentMachine] = BasicAuth{}
			}
		case "login":
			if currentMachine != "" {
				auth := n.machines[currentMachine]
				auth.User = token
				n.machines[currentMachine] = auth
			}
		case "password":
			if currentMachine != "" {
				auth := n.machines[currentMachine]
				auth.Password = token
				n.machines[currentMachine] = auth
			}
		}

		if pending != "" {
			pending = ""
			continue
		}
		switch token {
		case "machine", "login", "password":
			pending = token
		case "default":
			currentMachine = "default"
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return n, nil
}

// Load parses the netrc file at `path`. A missing file yields no entries.
func Load(path string) (*Netrc, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &Netrc{machines: map[string]BasicAuth{}}, nil
		}
		return nil, err
	}
	defer f.Close()
	return Parse(f)
}

// LoadUser parses ~/.netrc.
func LoadUser() *Netrc {
	home, err := homedir.Dir()
	if err != nil {
		log.Debug("Unable to find home directory, netrc not parsed.\n")
		return &Netrc{machines: map[string]BasicAuth{}}
	}

	path := filepath.Join(home, ".netrc")
	n, err := Load(path)
	if err != nil {
		log.Warning("Error reading %q: %v.\n", path, err)
		return &Netrc{machines: map[string]BasicAuth{}}
	}
	return n
}

// Lookup returns the credentials for `machine`.
func (n *Netrc) Lookup(machine string) (BasicAuth, bool) {
	auth, ok := n.machines[machine]
	return auth, ok
}

// GetAuthForUrl returns the credentials for the host of `urlString`.
func (n *Netrc) GetAuthForUrl(urlString string) *BasicAuth {
	u, err := url.Parse(urlString)
	if err != nil {
		log.Warning("Invalid URL %q.\n", urlString)
		return nil
	}
	if auth, ok := n.machines[strings.ToLower(u.Hostname())]; ok {
		return &auth
	}
	return nil
}
