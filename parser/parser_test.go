package parser

import (
	"io"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("ParseCommand", func() {
	var (
		input    string
		parser   *Parser
		cmd      *Command
		parseErr error
	)

	JustBeforeEach(func() {
		reader := strings.NewReader(input)
		parser, parseErr = NewParser(reader)
		Expect(parseErr).NotTo(HaveOccurred())

		cmd, parseErr = parser.ParseCommand()
	})

	Context("when parsing search-apps with a query", func() {
		BeforeEach(func() {
			input = `TXT01
"firefox
search-apps
`
		})

		It("should parse command name correctly", func() {
			Expect(parseErr).NotTo(HaveOccurred())
			Expect(cmd.Name).To(Equal("search-apps"))
		})

		It("should parse the query argument as a string", func() {
			Expect(cmd.Args).To(HaveLen(1))
			Expect(cmd.Args[0].Type).To(Equal(TypeString))
			Expect(cmd.Args[0].Str).To(Equal("firefox"))
		})
	})

	Context("when parsing search-apps without arguments", func() {
		BeforeEach(func() {
			input = `TXT01
search-apps
`
		})

		It("should parse an empty argument stack", func() {
			Expect(parseErr).NotTo(HaveOccurred())
			Expect(cmd.Name).To(Equal("search-apps"))
			Expect(cmd.Args).To(HaveLen(0))
		})
	})

	Context("when parsing browse with path and filter", func() {
		BeforeEach(func() {
			input = `TXT01
"/home/user/Pictures
"cat
browse
`
		})

		It("should keep the push order on the stack", func() {
			Expect(parseErr).NotTo(HaveOccurred())
			Expect(cmd.Name).To(Equal("browse"))
			Expect(cmd.Args).To(HaveLen(2))
			Expect(cmd.Args[0].Str).To(Equal("/home/user/Pictures"))
			Expect(cmd.Args[1].Str).To(Equal("cat"))
		})
	})

	Context("when parsing launch with a target", func() {
		BeforeEach(func() {
			input = `TXT01
"/usr/bin/firefox %u
launch
`
		})

		It("should keep field codes intact for the gate to strip", func() {
			Expect(parseErr).NotTo(HaveOccurred())
			Expect(cmd.Name).To(Equal("launch"))
			Expect(cmd.Args[0].Str).To(Equal("/usr/bin/firefox %u"))
		})
	})

	Context("when parsing integer and boolean values", func() {
		BeforeEach(func() {
			input = `TXT01
42
t
stats
`
		})

		It("should type each value", func() {
			Expect(parseErr).NotTo(HaveOccurred())
			Expect(cmd.Args).To(HaveLen(2))
			Expect(cmd.Args[0].Type).To(Equal(TypeInt))
			Expect(cmd.Args[0].Int).To(Equal(int64(42)))
			Expect(cmd.Args[1].Type).To(Equal(TypeBool))
			Expect(cmd.Args[1].Bool).To(BeTrue())
		})
	})

	Context("when input contains comments and blank lines", func() {
		BeforeEach(func() {
			input = `TXT01
# warm query

"note
search-folders
`
		})

		It("should skip them", func() {
			Expect(parseErr).NotTo(HaveOccurred())
			Expect(cmd.Name).To(Equal("search-folders"))
			Expect(cmd.Args).To(HaveLen(1))
		})
	})

	Context("when a line is neither value nor command", func() {
		BeforeEach(func() {
			input = `TXT01
bogus-command
`
		})

		It("should return a parse error", func() {
			Expect(parseErr).To(HaveOccurred())
		})
	})

	Context("when input ends without a command", func() {
		BeforeEach(func() {
			input = "TXT01\n"
		})

		It("should return EOF", func() {
			Expect(parseErr).To(Equal(io.EOF))
		})
	})
})

var _ = Describe("NewParser", func() {
	It("should reject non-TXT headers", func() {
		_, err := NewParser(strings.NewReader("BIN01\nsearch-apps\n"))
		Expect(err).To(HaveOccurred())
	})

	It("should reject truncated headers", func() {
		_, err := NewParser(strings.NewReader("TX"))
		Expect(err).To(HaveOccurred())
	})
})

var _ = Describe("ReadAllCommands", func() {
	It("should read consecutive commands until EOF", func() {
		input := `TXT01
"firefox
search-apps
"cat
search-images
index-size
`
		p, err := NewParser(strings.NewReader(input))
		Expect(err).NotTo(HaveOccurred())

		cmds, err := p.ReadAllCommands()
		Expect(err).NotTo(HaveOccurred())
		Expect(cmds).To(HaveLen(3))
		Expect(cmds[0].Name).To(Equal("search-apps"))
		Expect(cmds[1].Name).To(Equal("search-images"))
		Expect(cmds[2].Name).To(Equal("index-size"))
		Expect(cmds[2].Args).To(HaveLen(0))
	})
})
