package messenger_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/studybot/pkg/messenger"
	"github.com/papercomputeco/studybot/pkg/utils"
)

type recordedRequest struct {
	Method    string
	Path      string
	Query     map[string]string
	Body      map[string]any
	UserAgent string
}

var _ = Describe("Client", func() {
	var (
		server   *httptest.Server
		client   *messenger.Client
		mu       sync.Mutex
		requests []recordedRequest
		status   int
		ctx      context.Context
	)

	BeforeEach(func() {
		ctx = context.Background()
		requests = nil
		status = http.StatusOK

		server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer GinkgoRecover()

			rec := recordedRequest{
				Method:    r.Method,
				Path:      r.URL.Path,
				Query:     map[string]string{},
				UserAgent: r.UserAgent(),
			}
			for k := range r.URL.Query() {
				rec.Query[k] = r.URL.Query().Get(k)
			}
			if r.Body != nil {
				data, err := io.ReadAll(r.Body)
				Expect(err).NotTo(HaveOccurred())
				if len(data) > 0 {
					Expect(json.Unmarshal(data, &rec.Body)).To(Succeed())
				}
			}

			mu.Lock()
			requests = append(requests, rec)
			code := status
			mu.Unlock()

			w.WriteHeader(code)
			if strings.HasPrefix(r.URL.Path, "/psid-1") {
				_, _ = w.Write([]byte(`{"first_name":"Ada","id":"psid-1"}`))
				return
			}
			_, _ = w.Write([]byte(`{"recipient_id":"psid-1","message_id":"m"}`))
		}))

		var err error
		client, err = messenger.NewClient(&messenger.Config{
			APIURL:          server.URL,
			PageAccessToken: "page-token",
			MessageLimit:    20,
		})
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		server.Close()
	})

	It("requires a page access token", func() {
		_, err := messenger.NewClient(&messenger.Config{})
		Expect(err).To(HaveOccurred())
	})

	It("sends a reply with the response messaging type", func() {
		Expect(client.SendMessage(ctx, "psid-1", "hello", messenger.MessageTypeResponse)).To(Succeed())

		Expect(requests).To(HaveLen(1))
		req := requests[0]
		Expect(req.Method).To(Equal(http.MethodPost))
		Expect(req.Path).To(Equal("/me/messages"))
		Expect(req.Query).To(HaveKeyWithValue("access_token", "page-token"))
		Expect(req.Body).To(HaveKeyWithValue("messaging_type", "RESPONSE"))
		Expect(req.Body["recipient"]).To(HaveKeyWithValue("id", "psid-1"))
		Expect(req.Body["message"]).To(HaveKeyWithValue("text", "hello"))
		Expect(req.UserAgent).To(Equal(utils.UserAgent()))
	})

	It("splits long text into ordered messages", func() {
		text := "one two three four five six seven"
		Expect(client.SendMessage(ctx, "psid-1", text, messenger.MessageTypeNonPromotional)).To(Succeed())

		Expect(len(requests)).To(BeNumerically(">", 1))
		var rebuilt strings.Builder
		for _, req := range requests {
			Expect(req.Body).To(HaveKeyWithValue("messaging_type", "NON_PROMOTIONAL_SUBSCRIPTION"))
			rebuilt.WriteString(req.Body["message"].(map[string]any)["text"].(string))
		}
		Expect(rebuilt.String()).To(Equal(text))
	})

	It("sends nothing for empty text", func() {
		Expect(client.SendMessage(ctx, "psid-1", "", messenger.MessageTypeResponse)).To(Succeed())
		Expect(requests).To(BeEmpty())
	})

	It("toggles the typing indicator", func() {
		Expect(client.SetTypingIndicator(ctx, "psid-1", true)).To(Succeed())
		Expect(client.SetTypingIndicator(ctx, "psid-1", false)).To(Succeed())

		Expect(requests).To(HaveLen(2))
		Expect(requests[0].Body).To(HaveKeyWithValue("sender_action", "typing_on"))
		Expect(requests[1].Body).To(HaveKeyWithValue("sender_action", "typing_off"))
		Expect(requests[0].Body).NotTo(HaveKey("message"))
	})

	It("looks up the first name", func() {
		name, err := client.FirstName(ctx, "psid-1")
		Expect(err).NotTo(HaveOccurred())
		Expect(name).To(Equal("Ada"))
		Expect(requests[0].Method).To(Equal(http.MethodGet))
		Expect(requests[0].Query).To(HaveKeyWithValue("fields", "first_name"))
	})

	It("returns an APIError on non-2xx responses", func() {
		status = http.StatusBadRequest
		err := client.SendMessage(ctx, "psid-1", "hello", messenger.MessageTypeResponse)

		var apiErr *messenger.APIError
		Expect(errors.As(err, &apiErr)).To(BeTrue())
		Expect(apiErr.StatusCode).To(Equal(http.StatusBadRequest))
	})

	It("opens the circuit after repeated failures", func() {
		status = http.StatusInternalServerError
		for range 5 {
			Expect(client.SetTypingIndicator(ctx, "psid-1", true)).NotTo(Succeed())
		}
		sent := len(requests)

		err := client.SetTypingIndicator(ctx, "psid-1", true)
		Expect(err).To(MatchError(ContainSubstring("circuit breaker is open")))
		Expect(requests).To(HaveLen(sent))
	})
})
