package mcp_test

import (
	"context"
	"net/http/httptest"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	mcpapi "github.com/papercomputeco/studybot/api/mcp"
	"github.com/papercomputeco/studybot/pkg/flashcard"
	"github.com/papercomputeco/studybot/pkg/storage/inmemory"
)

var _ = Describe("MCP Server", func() {
	var driver *inmemory.Driver

	BeforeEach(func() {
		driver = inmemory.NewDriver()
	})

	Describe("NewServer", func() {
		It("returns an error when the fact repository is nil", func() {
			_, err := mcpapi.NewServer(mcpapi.Config{})
			Expect(err).To(MatchError(ContainSubstring("fact repository is required")))
		})

		It("defaults the logger and clock", func() {
			server, err := mcpapi.NewServer(mcpapi.Config{Facts: driver})
			Expect(err).NotTo(HaveOccurred())
			Expect(server.Handler()).NotTo(BeNil())
		})
	})

	Describe("over streamable HTTP", func() {
		var (
			ctx     context.Context
			cancel  context.CancelFunc
			session *mcp.ClientSession
		)

		BeforeEach(func() {
			ctx, cancel = context.WithTimeout(context.Background(), 10*time.Second)
			DeferCleanup(func() { cancel() })

			now := time.Date(2024, time.March, 10, 12, 0, 0, 0, time.UTC)
			server, err := mcpapi.NewServer(mcpapi.Config{
				Facts: driver,
				Now:   func() time.Time { return now },
			})
			Expect(err).NotTo(HaveOccurred())

			user, _, err := driver.GetOrCreateUser(ctx, "psid-1")
			Expect(err).NotTo(HaveOccurred())
			_, err = driver.CreateFact(ctx, flashcard.NewFact(user.ID, "Capital of France?", "Paris", now.Add(-48*time.Hour)))
			Expect(err).NotTo(HaveOccurred())

			ts := httptest.NewServer(server.Handler())
			DeferCleanup(ts.Close)

			client := mcp.NewClient(&mcp.Implementation{Name: "studybot-test", Version: "test"}, nil)
			session, err = client.Connect(ctx, &mcp.StreamableClientTransport{Endpoint: ts.URL}, nil)
			Expect(err).NotTo(HaveOccurred())
			DeferCleanup(func() { _ = session.Close() })
		})

		textOf := func(result *mcp.CallToolResult) string {
			GinkgoHelper()
			Expect(result.Content).NotTo(BeEmpty())
			text, ok := result.Content[0].(*mcp.TextContent)
			Expect(ok).To(BeTrue())
			return text.Text
		}

		It("advertises the fact tools", func() {
			tools, err := session.ListTools(ctx, &mcp.ListToolsParams{})
			Expect(err).NotTo(HaveOccurred())

			names := make([]string, 0, len(tools.Tools))
			for _, tool := range tools.Tools {
				names = append(names, tool.Name)
			}
			Expect(names).To(ConsistOf("list_facts", "next_due_fact", "study_summary"))
		})

		It("calls next_due_fact", func() {
			result, err := session.CallTool(ctx, &mcp.CallToolParams{
				Name:      "next_due_fact",
				Arguments: map[string]any{"external_id": "psid-1"},
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(result.IsError).To(BeFalse())
			Expect(textOf(result)).To(ContainSubstring(`"question":"Capital of France?"`))
			Expect(textOf(result)).To(ContainSubstring(`"caught_up":false`))
		})

		It("reports unknown users as tool errors", func() {
			result, err := session.CallTool(ctx, &mcp.CallToolParams{
				Name:      "study_summary",
				Arguments: map[string]any{"external_id": "nobody"},
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(result.IsError).To(BeTrue())
			Expect(textOf(result)).To(ContainSubstring("No user with id nobody"))
		})
	})
})
