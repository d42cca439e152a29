// vitrina-mcp is a stdio MCP server bridging to a running vitrina API.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// searchResponse mirrors the vitrina search API response.
type searchResponse struct {
	Success  bool `json:"success"`
	Products []struct {
		Title string `json:"title"`
		Price string `json:"price"`
		Link  string `json:"link"`
	} `json:"products"`
	Total int `json:"total"`
	Error *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// productResponse mirrors the vitrina product API response.
type productResponse struct {
	Success bool            `json:"success"`
	Product json.RawMessage `json:"product"`
	Error   *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// ordersResponse mirrors the vitrina orders API response.
type ordersResponse struct {
	Success bool `json:"success"`
	Orders  []struct {
		OrderNumber string `json:"order_number"`
		Date        string `json:"date"`
		Status      string `json:"status"`
		Total       string `json:"total"`
	} `json:"orders"`
	Total int `json:"total"`
	Error *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func main() {
	apiURL := os.Getenv("VITRINA_API_URL")
	if apiURL == "" {
		apiURL = "http://127.0.0.1:8080"
	}
	apiKey := os.Getenv("VITRINA_API_KEY")
	if apiKey == "" {
		fmt.Fprintln(os.Stderr, "VITRINA_API_KEY is required")
		os.Exit(1)
	}

	s := server.NewMCPServer(
		"vitrina",
		"1.0.0",
		server.WithToolCapabilities(false),
	)

	searchTool := mcp.NewTool("search_products",
		mcp.WithDescription("Search the storefront catalog for products matching a term. Returns title, price and link for each result."),
		mcp.WithString("term",
			mcp.Required(),
			mcp.Description("The search term"),
		),
		mcp.WithNumber("limit",
			mcp.Description("Maximum number of results (default: 20, max: 100)"),
		),
	)
	s.AddTool(searchTool, handleSearch(apiURL, apiKey))

	productTool := mcp.NewTool("get_product",
		mcp.WithDescription("Fetch the full detail record for one product page: price, discount, description, brand, availability, images."),
		mcp.WithString("url",
			mcp.Required(),
			mcp.Description("The product page URL on the storefront"),
		),
	)
	s.AddTool(productTool, handleProduct(apiURL, apiKey))

	ordersTool := mcp.NewTool("get_orders",
		mcp.WithDescription("List the purchase history of the authenticated storefront account."),
		mcp.WithNumber("limit",
			mcp.Description("Maximum number of orders (default: 50, max: 200)"),
		),
	)
	s.AddTool(ordersTool, handleOrders(apiURL, apiKey))

	sessionTool := mcp.NewTool("session_status",
		mcp.WithDescription("Report the scraper's session state (logged in or not, state machine phase, generation)."),
	)
	s.AddTool(sessionTool, handleSession(apiURL, apiKey))

	if err := server.ServeStdio(s); err != nil {
		fmt.Fprintf(os.Stderr, "server error: %v\n", err)
		os.Exit(1)
	}
}

func handleSearch(apiURL, apiKey string) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		term, err := req.RequireString("term")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		limit := req.GetInt("limit", 0)

		client := &http.Client{Timeout: 2 * time.Minute}
		body, err := apiPost(ctx, client, apiURL, apiKey, "/api/v1/search", map[string]any{
			"term":  term,
			"limit": limit,
		})
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		var resp searchResponse
		if err := json.Unmarshal(body, &resp); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("parse response: %v", err)), nil
		}
		if !resp.Success {
			return mcp.NewToolResultError(apiErrorMessage(resp.Error)), nil
		}

		var sb strings.Builder
		fmt.Fprintf(&sb, "%d products for %q:\n", resp.Total, term)
		for _, p := range resp.Products {
			fmt.Fprintf(&sb, "- %s | %s | %s\n", p.Title, p.Price, p.Link)
		}
		return mcp.NewToolResultText(sb.String()), nil
	}
}

func handleProduct(apiURL, apiKey string) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		url, err := req.RequireString("url")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		client := &http.Client{Timeout: 2 * time.Minute}
		body, err := apiPost(ctx, client, apiURL, apiKey, "/api/v1/product", map[string]any{
			"url": url,
		})
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		var resp productResponse
		if err := json.Unmarshal(body, &resp); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("parse response: %v", err)), nil
		}
		if !resp.Success {
			return mcp.NewToolResultError(apiErrorMessage(resp.Error)), nil
		}
		return mcp.NewToolResultText(string(resp.Product)), nil
	}
}

func handleOrders(apiURL, apiKey string) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		limit := req.GetInt("limit", 0)

		client := &http.Client{Timeout: 2 * time.Minute}
		body, err := apiPost(ctx, client, apiURL, apiKey, "/api/v1/orders", map[string]any{
			"limit": limit,
		})
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		var resp ordersResponse
		if err := json.Unmarshal(body, &resp); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("parse response: %v", err)), nil
		}
		if !resp.Success {
			return mcp.NewToolResultError(apiErrorMessage(resp.Error)), nil
		}

		var sb strings.Builder
		fmt.Fprintf(&sb, "%d orders:\n", resp.Total)
		for _, o := range resp.Orders {
			fmt.Fprintf(&sb, "- %s | %s | %s | %s\n", o.OrderNumber, o.Date, o.Status, o.Total)
		}
		return mcp.NewToolResultText(sb.String()), nil
	}
}

func handleSession(apiURL, apiKey string) server.ToolHandlerFunc {
	return func(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		client := &http.Client{Timeout: 30 * time.Second}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL+"/api/v1/session", nil)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		req.Header.Set("X-API-Key", apiKey)

		resp, err := client.Do(req)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("API request failed: %v", err)), nil
		}
		defer resp.Body.Close()

		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return mcp.NewToolResultText(string(body)), nil
	}
}

// apiPost sends a POST request to the vitrina API and returns the response body.
func apiPost(ctx context.Context, client *http.Client, apiURL, apiKey, path string, payload any) ([]byte, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, apiURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-API-Key", apiKey)

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("API request failed: %w", err)
	}
	defer resp.Body.Close()

	return io.ReadAll(resp.Body)
}

func apiErrorMessage(e *struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}) string {
	if e == nil {
		return "request failed"
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}
