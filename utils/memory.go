package utils

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/pinecone-io/go-pinecone/pinecone"
	"google.golang.org/protobuf/types/known/structpb"
)

// duplicateSimilarity is the cosine similarity above which a new fact is
// considered a restatement of a stored one and skipped.
const duplicateSimilarity = 0.97

// GetMemoryIndex connects to the vector memory namespace for one user. A nil
// userID disables memory entirely and is not an error.
func GetMemoryIndex(userID *string) (*pinecone.IndexConnection, error) {
	ctx := context.Background()
	if userID == nil {
		return nil, nil
	}

	indexName := os.Getenv("PINECONE_INDEX")
	if indexName == "" {
		return nil, fmt.Errorf("PINECONE_INDEX environment variable is not set")
	}

	pineconeAPIKey := os.Getenv("PINECONE_API_KEY")
	if pineconeAPIKey == "" {
		return nil, fmt.Errorf("PINECONE_API_KEY environment variable is not set")
	}

	clientParams := pinecone.NewClientParams{
		ApiKey: pineconeAPIKey,
	}

	client, err := pinecone.NewClient(clientParams)
	if err != nil {
		return nil, fmt.Errorf("failed to create Pinecone client: %w", err)
	}

	idx, err := client.DescribeIndex(ctx, indexName)
	if err != nil {
		return nil, fmt.Errorf("failed to describe index %q: %w", indexName, err)
	}

	namespace := fmt.Sprintf("lumora-%s", *userID)
	idxConnection, err := client.Index(pinecone.NewIndexConnParams{Host: idx.Host, Namespace: namespace})
	if err != nil {
		return nil, fmt.Errorf("failed to create IndexConnection for host %v: %w", idx.Host, err)
	}

	return idxConnection, nil
}

// RememberFact embeds and stores one fact, skipping near-duplicates of what
// is already remembered.
func RememberFact(ctx context.Context, index *pinecone.IndexConnection, fact string) error {
	embedding, err := EmbedText(ctx, fact)
	if err != nil {
		return fmt.Errorf("error vectorizing fact: %w", err)
	}

	existing, err := index.QueryByVectorValues(ctx, &pinecone.QueryByVectorValuesRequest{
		Vector:        embedding,
		TopK:          1,
		IncludeValues: true,
	})
	if err != nil {
		return fmt.Errorf("error querying memory index: %w", err)
	}
	for _, match := range existing.Matches {
		if match.Vector == nil {
			continue
		}
		if CosineSimilarity(embedding, match.Vector.Values) > duplicateSimilarity {
			return nil
		}
	}

	metadata, err := structpb.NewStruct(map[string]interface{}{
		"text":        fact,
		"recorded_at": time.Now().Format(time.RFC3339),
	})
	if err != nil {
		return fmt.Errorf("error building metadata: %w", err)
	}

	_, err = index.UpsertVectors(ctx, []*pinecone.Vector{
		{
			Id:       uuid.New().String(),
			Values:   embedding,
			Metadata: metadata,
		},
	})
	if err != nil {
		return fmt.Errorf("error upserting fact: %w", err)
	}
	return nil
}

// RecallFacts returns the stored facts most similar to the query text.
func RecallFacts(ctx context.Context, index *pinecone.IndexConnection, query string, topK int) ([]string, error) {
	embedding, err := EmbedText(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("error vectorizing query: %w", err)
	}

	queryResponse, err := index.QueryByVectorValues(ctx, &pinecone.QueryByVectorValuesRequest{
		Vector:          embedding,
		TopK:            uint32(topK),
		IncludeValues:   false,
		IncludeMetadata: true,
	})
	if err != nil {
		return nil, fmt.Errorf("error querying memory index: %w", err)
	}

	var facts []string
	for _, match := range queryResponse.Matches {
		if match.Vector == nil || match.Vector.Metadata == nil {
			continue
		}
		if value, ok := match.Vector.Metadata.Fields["text"]; ok {
			if text := value.GetStringValue(); text != "" {
				facts = append(facts, text)
			}
		}
	}
	return facts, nil
}

// ForgetFacts removes the stored facts closest to the query text and reports
// how many were deleted.
func ForgetFacts(ctx context.Context, index *pinecone.IndexConnection, query string) (int, error) {
	embedding, err := EmbedText(ctx, query)
	if err != nil {
		return 0, fmt.Errorf("error vectorizing query: %w", err)
	}

	queryResponse, err := index.QueryByVectorValues(ctx, &pinecone.QueryByVectorValuesRequest{
		Vector:          embedding,
		TopK:            3,
		IncludeMetadata: true,
	})
	if err != nil {
		return 0, fmt.Errorf("error querying memory index: %w", err)
	}

	var ids []string
	for _, match := range queryResponse.Matches {
		if match.Vector != nil && match.Vector.Id != "" {
			ids = append(ids, match.Vector.Id)
		}
	}
	if len(ids) == 0 {
		return 0, nil
	}
	if err := index.DeleteVectorsById(ctx, ids); err != nil {
		return 0, fmt.Errorf("error deleting facts: %w", err)
	}
	return len(ids), nil
}

// EmbedText turns text into an embedding vector via the embeddings API.
func EmbedText(ctx context.Context, text string) ([]float32, error) {
	apiKey := os.Getenv("EMBEDDINGS_API_KEY")
	if apiKey == "" {
		return nil, fmt.Errorf("EMBEDDINGS_API_KEY environment variable is not set")
	}

	requestBody := map[string]interface{}{
		"input": text,
		"model": "text-embedding-ada-002",
	}
	requestBodyBytes, err := json.Marshal(requestBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, "https://api.openai.com/v1/embeddings", bytes.NewBuffer(requestBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to create HTTP request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+apiKey)

	client := &http.Client{Timeout: 15 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send HTTP request: %w", err)
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("embeddings API returned status %d: %s", resp.StatusCode, string(bodyBytes))
	}

	var responseData struct {
		Data []struct {
			Embedding []float32 `json:"embedding"`
		} `json:"data"`
	}
	if err := json.Unmarshal(bodyBytes, &responseData); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response JSON: %w", err)
	}

	if len(responseData.Data) == 0 {
		return nil, fmt.Errorf("no data in embeddings API response")
	}

	return responseData.Data[0].Embedding, nil
}

// CosineSimilarity, using the angle between two vectors to determine similarity
// CosineSimilarity, compared to DotProduct, is more robust to changes in magnitude
// This means for two text embeddings, cosine similarity will explain more similarity semantically
func CosineSimilarity(vec1, vec2 []float32) float32 {
	if len(vec1) != len(vec2) || len(vec1) == 0 {
		return 0
	}

	var dotProduct float32
	var norm1 float32
	var norm2 float32

	for i := 0; i < len(vec1); i++ {
		dotProduct += vec1[i] * vec2[i]
		norm1 += vec1[i] * vec1[i]
		norm2 += vec2[i] * vec2[i]
	}

	norm1 = float32(math.Sqrt(float64(norm1)))
	norm2 = float32(math.Sqrt(float64(norm2)))

	if norm1 == 0 || norm2 == 0 {
		return 0 // Handle zero vectors to avoid division by zero
	}

	return dotProduct / (norm1 * norm2)
}
