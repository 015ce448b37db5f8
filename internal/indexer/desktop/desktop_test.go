package desktop

import (
	"os"
	"path/filepath"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/cheru-app/cherud/internal/entry"
)

func writeManifest(dir, name, content string) {
	Expect(os.WriteFile(filepath.Join(dir, name), []byte(content), 0644)).To(Succeed())
}

var _ = Describe("Discover", func() {
	var (
		tmpDir string
		d      *Discovery
		ix     entry.Index
	)

	BeforeEach(func() {
		tmpDir = GinkgoT().TempDir()
		d = &Discovery{Dirs: []string{tmpDir}}
	})

	JustBeforeEach(func() {
		var err error
		ix, err = d.Discover()
		Expect(err).NotTo(HaveOccurred())
	})

	Context("with a full set of manifests", func() {
		BeforeEach(func() {
			writeManifest(tmpDir, "firefox.desktop", `[Desktop Entry]
Type=Application
Name=Firefox
Exec=firefox %u
Icon=firefox
Comment=Browse the web
`)
			writeManifest(tmpDir, "editor.desktop", `[Desktop Entry]
Type=Application
Name=Editor
Exec=editor
`)
			writeManifest(tmpDir, "hidden.desktop", `[Desktop Entry]
Type=Application
Name=Hidden App
Exec=hidden
NoDisplay=true
`)
			writeManifest(tmpDir, "removed.desktop", `[Desktop Entry]
Type=Application
Name=Removed App
Exec=removed
Hidden=true
`)
			writeManifest(tmpDir, "folder-link.desktop", `[Desktop Entry]
Type=Link
Name=Some Link
Exec=whatever
`)
			writeManifest(tmpDir, "nameless.desktop", `[Desktop Entry]
Type=Application
Exec=nameless
`)
			writeManifest(tmpDir, "execless.desktop", `[Desktop Entry]
Type=Application
Name=No Command
`)
			writeManifest(tmpDir, "garbage.desktop", "not a manifest at all")
		})

		It("should index only visible applications with name and exec", func() {
			Expect(ix).To(HaveLen(2))
		})

		It("should extract name, exec, icon and comment", func() {
			var firefox *entry.Entry
			for i := range ix {
				if ix[i].Name == "Firefox" {
					firefox = &ix[i]
				}
			}
			Expect(firefox).NotTo(BeNil())
			Expect(firefox.Target).To(Equal("firefox %u"))
			Expect(firefox.Icon).To(Equal("firefox"))
			Expect(firefox.Description).To(Equal("Browse the web"))
			Expect(firefox.Kind).To(Equal(entry.Application))
		})

		It("should sort case-insensitively by name", func() {
			for i := 1; i < len(ix); i++ {
				Expect(strings.ToLower(ix[i-1].Name) <= strings.ToLower(ix[i].Name)).To(BeTrue())
			}
		})
	})

	Context("with duplicate names across directories", func() {
		var secondDir string

		BeforeEach(func() {
			secondDir = GinkgoT().TempDir()
			d.Dirs = []string{tmpDir, secondDir}
			writeManifest(tmpDir, "app.desktop", `[Desktop Entry]
Type=Application
Name=Duplicated
Exec=first
`)
			writeManifest(secondDir, "app.desktop", `[Desktop Entry]
Type=Application
Name=Duplicated
Exec=second
`)
		})

		It("should keep the first occurrence only", func() {
			Expect(ix).To(HaveLen(1))
			Expect(ix[0].Target).To(Equal("first"))
		})
	})

	Context("with keys outside the Desktop Entry section", func() {
		BeforeEach(func() {
			writeManifest(tmpDir, "actions.desktop", `[Desktop Entry]
Type=Application
Name=Real Name
Exec=real

[Desktop Action new-window]
Name=Other Name
Exec=other
`)
		})

		It("should ignore other sections", func() {
			Expect(ix).To(HaveLen(1))
			Expect(ix[0].Name).To(Equal("Real Name"))
			Expect(ix[0].Target).To(Equal("real"))
		})
	})

	Context("with a missing directory", func() {
		BeforeEach(func() {
			d.Dirs = []string{filepath.Join(tmpDir, "does-not-exist")}
		})

		It("should return an empty index, not an error", func() {
			Expect(ix).To(BeEmpty())
		})
	})
})
