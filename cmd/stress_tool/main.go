package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"sync"
	"time"
)

// Config
const (
	BaseURL       = "http://localhost:8080"
	TotalSessions = 2000 // 模拟 2000 个会话并发套码
	TestCode      = "SAVE10"
)

var (
	authToken  string
	httpClient *http.Client
)

func init() {
	// 优化 HTTP Client 配置
	t := http.DefaultTransport.(*http.Transport).Clone()
	t.MaxIdleConns = 2000
	t.MaxIdleConnsPerHost = 2000
	t.MaxConnsPerHost = 2000
	httpClient = &http.Client{
		Transport: t,
		Timeout:   10 * time.Second,
	}
}

func main() {
	authToken = os.Getenv("STRESS_TOKEN")
	if authToken == "" {
		fmt.Println("请通过 STRESS_TOKEN 环境变量提供 Bearer Token")
		return
	}

	fmt.Printf("开始压测：模拟 %d 个会话并发套用折扣码 %s ...\n", TotalSessions, TestCode)
	time.Sleep(1 * time.Second)

	var wg sync.WaitGroup
	successCount := 0
	failCount := 0
	var mu sync.Mutex

	start := time.Now()

	for i := 1; i <= TotalSessions; i++ {
		wg.Add(1)
		go func(sessionNo int) {
			defer wg.Done()
			success := applyDiscount()
			mu.Lock()
			if success {
				successCount++
			} else {
				failCount++
			}
			mu.Unlock()
		}(i)
	}

	wg.Wait()
	duration := time.Since(start)
	qps := float64(TotalSessions) / duration.Seconds()

	fmt.Println("--------------------------------------------------")
	fmt.Printf("压测结束，耗时: %v\n", duration)
	fmt.Printf("总请求数: %d\n", TotalSessions)
	fmt.Printf("QPS: %.2f\n", qps)
	fmt.Printf("套码成功: %d\n", successCount)
	fmt.Printf("套码失败: %d\n", failCount)
	fmt.Println("--------------------------------------------------")
}

func applyDiscount() bool {
	url := fmt.Sprintf("%s/discounts/apply", BaseURL)
	payload := map[string]interface{}{
		"code":         TestCode,
		"total_amount": 100,
	}
	body, _ := json.Marshal(payload)

	req, err := http.NewRequest(http.MethodPost, url, bytes.NewBuffer(body))
	if err != nil {
		return false
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+authToken)

	resp, err := httpClient.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return false
	}

	if resp.StatusCode != 200 {
		return false
	}

	// 检查业务状态码
	var result struct {
		Code int `json:"code"`
	}
	if err := json.Unmarshal(respBody, &result); err != nil {
		return false
	}

	return result.Code == 0
}
