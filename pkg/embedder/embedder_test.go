package embedder_test

import (
	"context"
	"io"
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/sirupsen/logrus"

	"github.com/lisanmuaddib/twitoff/pkg/embedder"
)

func norm(v []float32) float64 {
	var sum float64
	for _, f := range v {
		sum += float64(f) * float64(f)
	}
	return math.Sqrt(sum)
}

func cosine(a, b []float32) float64 {
	var dot float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
	}
	return dot / (norm(a) * norm(b))
}

var _ = Describe("Embedder", func() {
	var (
		logger *logrus.Logger
		ctx    context.Context
	)

	BeforeEach(func() {
		logger = logrus.New()
		logger.SetOutput(io.Discard)
		ctx = context.Background()
	})

	Context("with the hash provider", func() {
		var emb *embedder.Embedder

		BeforeEach(func() {
			var err error
			emb, err = embedder.New(ctx, &embedder.Config{
				Provider: embedder.ProviderHash,
				HashDim:  64,
				Logger:   logger,
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(emb.Provider()).To(Equal(embedder.ProviderHash))
		})

		AfterEach(func() {
			Expect(emb.Close()).To(Succeed())
		})

		It("should produce unit vectors of the configured size", func() {
			vec, err := emb.EmbedQuery(ctx, "Rockets are launching from Florida today")
			Expect(err).NotTo(HaveOccurred())
			Expect(vec).To(HaveLen(64))
			Expect(norm(vec)).To(BeNumerically("~", 1.0, 1e-5))
		})

		It("should be deterministic and case insensitive", func() {
			a, err := emb.EmbedQuery(ctx, "Basketball tonight")
			Expect(err).NotTo(HaveOccurred())
			b, err := emb.EmbedQuery(ctx, "basketball TONIGHT")
			Expect(err).NotTo(HaveOccurred())
			Expect(a).To(Equal(b))
		})

		It("should place similar texts closer than unrelated ones", func() {
			docs, err := emb.EmbedDocuments(ctx, []string{
				"the rocket launch was delayed by weather",
				"weather delayed the rocket launch again",
				"lebron scored forty points in the playoff game",
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(docs).To(HaveLen(3))
			Expect(cosine(docs[0], docs[1])).To(BeNumerically(">", cosine(docs[0], docs[2])))
		})

		It("should embed blank text as the zero vector", func() {
			vec, err := emb.EmbedQuery(ctx, "   ")
			Expect(err).NotTo(HaveOccurred())
			Expect(vec).To(HaveLen(64))
			Expect(norm(vec)).To(BeZero())
		})

		It("should return nothing for no documents", func() {
			docs, err := emb.EmbedDocuments(ctx, nil)
			Expect(err).NotTo(HaveOccurred())
			Expect(docs).To(BeEmpty())
		})
	})

	Describe("Config", func() {
		It("should default the OpenAI model", func() {
			config := &embedder.Config{Provider: embedder.ProviderOpenAI, OpenAIAPIKey: "sk-test", Logger: logger}
			Expect(config.Validate()).To(Succeed())
			Expect(config.OpenAIModel).To(Equal("text-embedding-3-small"))
		})

		It("should require an OpenAI key", func() {
			config := &embedder.Config{Provider: embedder.ProviderOpenAI, Logger: logger}
			Expect(config.Validate()).To(MatchError(ContainSubstring("OPENAI_API_KEY")))
		})

		It("should require a Gemini key", func() {
			config := &embedder.Config{Provider: embedder.ProviderGemini, Logger: logger}
			Expect(config.Validate()).To(MatchError(ContainSubstring("GEMINI_API_KEY")))
		})

		It("should default the Ollama server", func() {
			config := &embedder.Config{Provider: embedder.ProviderOllama, Logger: logger}
			Expect(config.Validate()).To(Succeed())
			Expect(config.OllamaServerURL).To(Equal("http://localhost:11434"))
			Expect(config.OllamaModel).To(Equal("nomic-embed-text"))
		})

		It("should reject unknown providers", func() {
			config := &embedder.Config{Provider: "word2vec", Logger: logger}
			Expect(config.Validate()).To(MatchError(ContainSubstring("unknown embedding provider")))
		})

		It("should read the provider from the environment", func() {
			GinkgoT().Setenv("EMBEDDING_PROVIDER", "HASH")
			GinkgoT().Setenv("HASH_EMBEDDING_DIM", "32")

			config, err := embedder.NewConfig()
			Expect(err).NotTo(HaveOccurred())
			Expect(config.Provider).To(Equal(embedder.ProviderHash))
			Expect(config.HashDim).To(Equal(32))
		})
	})
})
