package launcher

import (
	"bufio"
	"fmt"
	"net"
	"os"
	"os/user"
	"path/filepath"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

// fakeServer speaks the daemon's side of the protocol with canned
// responses, so the client parsing is tested without a running daemon.
func fakeServer(ln net.Listener) {
	conn, err := ln.Accept()
	if err != nil {
		return
	}
	defer conn.Close()

	header := make([]byte, 5)
	if _, err := conn.Read(header); err != nil {
		return
	}

	reader := bufio.NewReader(conn)
	var args []string
	for {
		line, err := reader.ReadString('\n')
		if err != nil {
			return
		}
		line = strings.TrimSpace(line)
		if after, ok := strings.CutPrefix(line, `"`); ok {
			args = append(args, after)
			continue
		}

		respond := func(body string) {
			fmt.Fprint(conn, "TXT01"+body)
		}
		switch line {
		case "search-apps":
			respond("cmd: search-apps\nlist-len: 2\n\n" +
				"app\tFirefox\t/usr/bin/firefox %u\tfirefox\tBrowse the web\n" +
				"app\tFiles\t/usr/bin/files\t\t\n")
		case "search-folders":
			respond("cmd: search-folders\nlist-len: 0\n\n")
		case "launch":
			if strings.HasPrefix(args[0], "/") {
				respond("cmd: launch\nstatus: 0\n\n")
			} else {
				respond("error-cmd: launch\nerror: launch rejected\ndesc: not an absolute path\n\n")
			}
		case "index-size":
			respond("cmd: index-size\nindex-size: 2\nstatus: 0\n\n")
		case "hotkey":
			respond("cmd: hotkey\nhotkey: Alt+Space\nstatus: 0\n\n")
		case "stats":
			respond("cmd: stats\napps: 2\nfolders: -1\nimages: -1\nactions: 4\nstatus: 0\n\n")
		default:
			respond("error-cmd: " + line + "\nerror: unknown command\ndesc: Command not recognized\n\n")
		}
		args = nil
	}
}

var _ = Describe("Client", func() {
	var client *Client

	BeforeEach(func() {
		sock := filepath.Join(GinkgoT().TempDir(), "indexd")
		ln, err := net.Listen("unix", sock)
		Expect(err).NotTo(HaveOccurred())
		DeferCleanup(func() { ln.Close() })
		go fakeServer(ln)

		GinkgoT().Setenv("CHERU_SOCK", sock)
		client, err = NewClient()
		Expect(err).NotTo(HaveOccurred())
		DeferCleanup(func() { client.Close() })
	})

	It("should parse search results field by field", func() {
		results, err := client.SearchApps("fire")
		Expect(err).NotTo(HaveOccurred())
		Expect(results).To(HaveLen(2))
		Expect(results[0]).To(Equal(Result{
			Kind:        "app",
			Name:        "Firefox",
			Target:      "/usr/bin/firefox %u",
			Icon:        "firefox",
			Description: "Browse the web",
		}))
	})

	It("should tolerate empty trailing fields", func() {
		results, err := client.SearchApps("files")
		Expect(err).NotTo(HaveOccurred())
		Expect(results[1].Icon).To(BeEmpty())
		Expect(results[1].Description).To(BeEmpty())
	})

	It("should return an empty slice for empty lists", func() {
		results, err := client.SearchFolders("zz")
		Expect(err).NotTo(HaveOccurred())
		Expect(results).To(BeEmpty())
	})

	It("should report successful launches as nil", func() {
		Expect(client.Launch("/usr/bin/firefox")).To(Succeed())
	})

	It("should surface launch rejections as errors", func() {
		err := client.Launch("relative-tool")
		Expect(err).To(HaveOccurred())
		Expect(err.Error()).To(ContainSubstring("launch rejected"))
	})

	It("should read the index size attribute", func() {
		Expect(client.IndexSize()).To(Equal(2))
	})

	It("should read the hotkey attribute", func() {
		Expect(client.Hotkey()).To(Equal("Alt+Space"))
	})

	It("should read the stats attribute block", func() {
		stats, err := client.Stats()
		Expect(err).NotTo(HaveOccurred())
		Expect(stats).To(HaveKeyWithValue("apps", "2"))
		Expect(stats).To(HaveKeyWithValue("folders", "-1"))
	})

	It("should serialize consecutive commands over one connection", func() {
		Expect(client.Launch("/usr/bin/firefox")).To(Succeed())
		results, err := client.SearchApps("fire")
		Expect(err).NotTo(HaveOccurred())
		Expect(results).To(HaveLen(2))
	})
})

var _ = Describe("getSocketPath", func() {
	It("should prefer the environment override", func() {
		GinkgoT().Setenv("CHERU_SOCK", "/run/cheru/indexd")
		Expect(getSocketPath()).To(Equal("/run/cheru/indexd"))
	})

	It("should expand a leading tilde in the override", func() {
		home, err := os.UserHomeDir()
		Expect(err).NotTo(HaveOccurred())
		GinkgoT().Setenv("CHERU_SOCK", "~/run/indexd")
		Expect(getSocketPath()).To(Equal(home + "/run/indexd"))
	})

	It("should default to the per-user tmp path", func() {
		GinkgoT().Setenv("CHERU_SOCK", "")
		u, err := user.Current()
		Expect(err).NotTo(HaveOccurred())
		Expect(getSocketPath()).To(Equal("/tmp/cheru-" + u.Uid + "/indexd"))
	})
})
