package bundle

import (
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/cheru-app/cherud/internal/entry"
)

func writeBundle(root, name, plistBody string) string {
	path := filepath.Join(root, name)
	Expect(os.MkdirAll(filepath.Join(path, "Contents", "Resources"), 0755)).To(Succeed())
	data := []byte(plistTemplateFilled(plistBody))
	Expect(os.WriteFile(filepath.Join(path, "Contents", "Info.plist"), data, 0644)).To(Succeed())
	return path
}

func plistTemplateFilled(body string) string {
	return `<?xml version="1.0" encoding="UTF-8"?>
<!DOCTYPE plist PUBLIC "-//Apple//DTD PLIST 1.0//EN" "http://www.apple.com/DTDs/PropertyList-1.0.dtd">
<plist version="1.0">
<dict>
` + body + `</dict>
</plist>
`
}

var _ = Describe("Discover", func() {
	var (
		root string
		d    *Discovery
	)

	BeforeEach(func() {
		root = GinkgoT().TempDir()
		d = &Discovery{Dirs: []string{root}}
	})

	Context("with a complete bundle", func() {
		BeforeEach(func() {
			path := writeBundle(root, "Safari.app", `	<key>CFBundleDisplayName</key>
	<string>Safari</string>
	<key>CFBundleIconFile</key>
	<string>AppIcon</string>
	<key>CFBundleGetInfoString</key>
	<string>Web browser</string>
`)
			Expect(os.WriteFile(filepath.Join(path, "Contents", "Resources", "AppIcon.icns"), []byte("icns"), 0644)).To(Succeed())
		})

		It("should use the bundle path itself as the launch target", func() {
			ix, err := d.Discover()
			Expect(err).NotTo(HaveOccurred())
			Expect(ix).To(HaveLen(1))
			Expect(ix[0].Name).To(Equal("Safari"))
			Expect(ix[0].Target).To(Equal(filepath.Join(root, "Safari.app")))
			Expect(ix[0].Description).To(Equal("Web browser"))
			Expect(ix[0].Kind).To(Equal(entry.Application))
		})

		It("should resolve the icon reference to an absolute .icns path", func() {
			ix, _ := d.Discover()
			Expect(ix[0].Icon).To(Equal(filepath.Join(root, "Safari.app", "Contents", "Resources", "AppIcon.icns")))
		})
	})

	Context("with sparse bundle metadata", func() {
		BeforeEach(func() {
			writeBundle(root, "Mystery Tool.app", "")
		})

		It("should fall back to the bundle folder name", func() {
			ix, _ := d.Discover()
			Expect(ix).To(HaveLen(1))
			Expect(ix[0].Name).To(Equal("Mystery Tool"))
			Expect(ix[0].Icon).To(BeEmpty())
		})
	})

	Context("with CFBundleName but no display name", func() {
		BeforeEach(func() {
			writeBundle(root, "term.app", `	<key>CFBundleName</key>
	<string>Terminal</string>
`)
		})

		It("should prefer the plist name over the folder name", func() {
			ix, _ := d.Discover()
			Expect(ix[0].Name).To(Equal("Terminal"))
		})
	})

	Context("with unreadable or non-bundle directory entries", func() {
		BeforeEach(func() {
			writeBundle(root, "Good.app", `	<key>CFBundleDisplayName</key>
	<string>Good</string>
`)
			// .app directory without any Info.plist
			Expect(os.MkdirAll(filepath.Join(root, "Broken.app"), 0755)).To(Succeed())
			// plain directory, not a bundle
			Expect(os.MkdirAll(filepath.Join(root, "NotABundle"), 0755)).To(Succeed())
		})

		It("should skip them and keep the rest", func() {
			ix, err := d.Discover()
			Expect(err).NotTo(HaveOccurred())
			Expect(ix.Names()).To(ConsistOf("Good"))
		})
	})

	Context("with a missing bundle root", func() {
		BeforeEach(func() {
			d.Dirs = []string{filepath.Join(root, "does-not-exist")}
		})

		It("should return an empty index, not an error", func() {
			ix, err := d.Discover()
			Expect(err).NotTo(HaveOccurred())
			Expect(ix).To(BeEmpty())
		})
	})
})

var _ = Describe("iconPath", func() {
	var bundlePath string

	BeforeEach(func() {
		bundlePath = filepath.Join(GinkgoT().TempDir(), "App.app")
		Expect(os.MkdirAll(filepath.Join(bundlePath, "Contents", "Resources"), 0755)).To(Succeed())
	})

	It("should append the .icns extension when the reference has none", func() {
		icns := filepath.Join(bundlePath, "Contents", "Resources", "AppIcon.icns")
		Expect(os.WriteFile(icns, []byte("icns"), 0644)).To(Succeed())
		Expect(iconPath(bundlePath, "AppIcon")).To(Equal(icns))
	})

	It("should return empty for dangling references", func() {
		Expect(iconPath(bundlePath, "Missing")).To(BeEmpty())
	})

	It("should return empty when the bundle declares no icon", func() {
		Expect(iconPath(bundlePath, "")).To(BeEmpty())
	})
})

var _ = Describe("NormalizeIcons", func() {
	var cacheDir string

	BeforeEach(func() {
		cacheDir = GinkgoT().TempDir()
	})

	index := func(name, icon string) entry.Index {
		return entry.Index{{Name: name, Target: "/Applications/" + name + ".app", Icon: icon, Kind: entry.Application}}
	}

	It("should leave non-icns icons untouched", func() {
		ix := index("Editor", "editor-icon")
		NormalizeIcons(ix, cacheDir)
		Expect(ix[0].Icon).To(Equal("editor-icon"))
	})

	It("should reuse an existing cache file without converting again", func() {
		cached := filepath.Join(cacheDir, cacheFileName("Safari"))
		Expect(os.WriteFile(cached, []byte("png"), 0644)).To(Succeed())

		ix := index("Safari", "/Applications/Safari.app/Contents/Resources/AppIcon.icns")
		NormalizeIcons(ix, cacheDir)
		Expect(ix[0].Icon).To(Equal(cached))
	})

	It("should keep the original icon when conversion fails", func() {
		// Empty PATH means the converter cannot be found.
		GinkgoT().Setenv("PATH", GinkgoT().TempDir())

		ix := index("Safari", "/Applications/Safari.app/Contents/Resources/AppIcon.icns")
		NormalizeIcons(ix, cacheDir)
		Expect(ix[0].Icon).To(Equal("/Applications/Safari.app/Contents/Resources/AppIcon.icns"))
	})
})

var _ = Describe("cacheFileName", func() {
	It("should sanitize names into filesystem-safe tokens", func() {
		Expect(cacheFileName("My App")).To(HavePrefix("my-app-"))
		Expect(cacheFileName("My App")).To(HaveSuffix(".png"))
	})

	It("should not collide for names that sanitize identically", func() {
		Expect(cacheFileName("Safari")).NotTo(Equal(cacheFileName("Safari!")))
	})
})
