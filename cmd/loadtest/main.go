package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"golang.org/x/sync/errgroup"
)

// Result 记录单次请求的 HTTP 结果，便于聚合统计。
type Result struct {
	Status int
	Body   string
	Err    error
}

type cartLine struct {
	MenuItemID uint `json:"menu_item_id"`
	Quantity   int  `json:"quantity"`
}

type orderReq struct {
	CustomerName  string     `json:"customer_name"`
	CustomerPhone string     `json:"customer_phone"`
	TableNumber   string     `json:"table_number,omitempty"`
	Items         []cartLine `json:"items"`
}

func main() {
	baseURL := flag.String("base", "http://localhost:8080", "server base url")
	itemID := flag.Uint("item", 0, "menu item id (0 = first item from /api/menu)")

	// 原子性测试：N 个顾客并发下单，完成后 totalOrders 的增量必须等于成功数
	nOrders := flag.Int("orders", 200, "orders to submit")
	concurrency := flag.Int("c", 50, "max concurrency")
	burst := flag.Int("burst", 50, "requests from one phone for the rate limit test (0 = skip)")
	flag.Parse()

	client := &http.Client{Timeout: 10 * time.Second}
	ctx := context.Background()

	id := *itemID
	if id == 0 {
		first, err := firstMenuItem(client, *baseURL)
		if err != nil {
			fail("load menu: %v", err)
		}
		id = first
	}

	before, err := totalOrders(client, *baseURL)
	if err != nil {
		fail("stats before: %v", err)
	}

	fmt.Printf("start atomicity test: item=%d orders=%d concurrency=%d\n", id, *nOrders, *concurrency)
	start := time.Now()
	results := runOrders(ctx, client, *baseURL, *nOrders, *concurrency, func(i int) orderReq {
		return orderReq{
			CustomerName:  fmt.Sprintf("load-%d", i),
			CustomerPhone: fmt.Sprintf("08%09d", i),
			TableNumber:   fmt.Sprintf("%d", i%20+1),
			Items:         []cartLine{{MenuItemID: id, Quantity: 1 + i%3}},
		}
	})
	elapsed := time.Since(start)
	printSummary("atomicity", results)
	fmt.Printf("  elapsed %s (%.1f req/s)\n", elapsed.Round(time.Millisecond), float64(len(results))/elapsed.Seconds())

	after, err := totalOrders(client, *baseURL)
	if err != nil {
		fail("stats after: %v", err)
	}
	created := count(results, http.StatusCreated)
	fmt.Printf("totalOrders %d -> %d (delta %d), created %d\n", before, after, after-before, created)
	if after-before != int64(created) {
		// 其他客户端同时下单也会导致不一致，压测时请单独跑
		fail("totalOrders delta does not match successful submissions")
	}

	// 限流测试：同一手机号连续下单，应出现 429
	if *burst > 0 {
		fmt.Printf("\nstart rate limit test: same phone, %d requests\n", *burst)
		results2 := runOrders(ctx, client, *baseURL, *burst, *burst, func(int) orderReq {
			return orderReq{
				CustomerName:  "burst",
				CustomerPhone: "080000000000",
				Items:         []cartLine{{MenuItemID: id, Quantity: 1}},
			}
		})
		printSummary("rate_limit", results2)
	}
}

func runOrders(ctx context.Context, client *http.Client, baseURL string, n, concurrency int, build func(i int) orderReq) []Result {
	results := make([]Result, n)
	g, _ := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)
	for i := 0; i < n; i++ {
		i := i
		g.Go(func() error {
			results[i] = postOrder(client, baseURL, build(i))
			return nil
		})
	}
	_ = g.Wait()
	return results
}

func postOrder(client *http.Client, baseURL string, req orderReq) Result {
	b, _ := json.Marshal(req)
	httpReq, _ := http.NewRequest(http.MethodPost, baseURL+"/api/orders", bytes.NewReader(b))
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(httpReq)
	if err != nil {
		return Result{Err: err}
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	return Result{Status: resp.StatusCode, Body: string(body)}
}

func count(results []Result, status int) int {
	n := 0
	for _, r := range results {
		if r.Err == nil && r.Status == status {
			n++
		}
	}
	return n
}

// printSummary 聚合输出不同状态码分布。
func printSummary(name string, results []Result) {
	byStatus := map[int]int{}
	errCount := 0
	var sample string
	for _, r := range results {
		if r.Err != nil {
			errCount++
			continue
		}
		byStatus[r.Status]++
		if r.Status >= 500 && sample == "" {
			sample = r.Body
		}
	}
	fmt.Printf("[%s] http status summary:\n", name)
	for _, code := range []int{201, 400, 404, 409, 429, 500} {
		if byStatus[code] > 0 {
			fmt.Printf("  %d -> %d\n", code, byStatus[code])
		}
	}
	if errCount > 0 {
		fmt.Printf("  errors -> %d\n", errCount)
	}
	if sample != "" {
		fmt.Printf("  first 5xx body: %s\n", sample)
	}
}

func getJSON(client *http.Client, url string, out any) error {
	resp, err := client.Get(url)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	b, _ := io.ReadAll(resp.Body)
	if resp.StatusCode >= 300 {
		return fmt.Errorf("status=%d body=%s", resp.StatusCode, string(b))
	}
	return json.Unmarshal(b, out)
}

// totalOrders 读取看板快照中的 totalOrders。
func totalOrders(client *http.Client, baseURL string) (int64, error) {
	var out struct {
		Data struct {
			TotalOrders int64 `json:"totalOrders"`
		} `json:"data"`
	}
	if err := getJSON(client, baseURL+"/api/dashboard/stats", &out); err != nil {
		return 0, err
	}
	return out.Data.TotalOrders, nil
}

func firstMenuItem(client *http.Client, baseURL string) (uint, error) {
	var out struct {
		Data []struct {
			ID uint `json:"id"`
		} `json:"data"`
	}
	if err := getJSON(client, baseURL+"/api/menu", &out); err != nil {
		return 0, err
	}
	if len(out.Data) == 0 {
		return 0, fmt.Errorf("menu is empty, start the server with SEED_DEMO_DATA=true")
	}
	return out.Data[0].ID, nil
}

func fail(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
