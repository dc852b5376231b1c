package worker

import (
	"context"
	"log"
	"time"
	"storefront_bff/internal/pkg/session"

	"github.com/shopspring/decimal"
)

// AuditTask 折扣应用审计记录
// 两次回退尝试的错误都保留在这里，即使用户只看到 assigned 的报错
type AuditTask struct {
	SessionID   string          `json:"session_id"`
	Code        string          `json:"code"`
	Amount      decimal.Decimal `json:"amount"`
	GenericErr  string          `json:"generic_err,omitempty"`
	AssignedErr string          `json:"assigned_err,omitempty"`
	Outcome     string          `json:"outcome"` // applied_generic / applied_assigned / failed
	At          time.Time       `json:"at"`
	Retry       int             `json:"-"` // 重试次数
}

// AuditPool 异步审计写入池
type AuditPool struct {
	TaskQueue  chan AuditTask
	RetryQueue chan AuditTask // 重试队列
	Store      *session.Store
	WorkerNum  int
	MaxRetry   int // 最大重试次数
	MaxEntries int // 每个会话保留的审计条数上限
}

// NewAuditPool 创建审计写入池
func NewAuditPool(store *session.Store, workerNum int, bufferSize int) *AuditPool {
	return &AuditPool{
		TaskQueue:  make(chan AuditTask, bufferSize),
		RetryQueue: make(chan AuditTask, bufferSize/2),
		Store:      store,
		WorkerNum:  workerNum,
		MaxRetry:   3, // 最多重试3次
		MaxEntries: 100,
	}
}

func (p *AuditPool) Start() {
	for i := 0; i < p.WorkerNum; i++ {
		go p.worker(i)
	}
	// 启动重试处理协程
	go p.retryWorker()
	log.Printf("Audit pool started with %d workers", p.WorkerNum)
}

func (p *AuditPool) worker(id int) {
	for task := range p.TaskQueue {
		if err := p.processTask(task); err != nil {
			log.Printf("[Worker %d] Failed to write audit entry (Session: %s, Code: %s): %v",
				id, task.SessionID, task.Code, err)

			// 如果未达到最大重试次数，加入重试队列
			if task.Retry < p.MaxRetry {
				task.Retry++
				select {
				case p.RetryQueue <- task:
				default:
					log.Printf("[Worker %d] Retry queue full, audit entry dropped: %+v", id, task)
					p.logFailedTask(task, err)
				}
			} else {
				log.Printf("[Worker %d] Audit entry exceeded max retries, dropped: %+v", id, task)
				p.logFailedTask(task, err)
			}
		}
	}
}

func (p *AuditPool) retryWorker() {
	for task := range p.RetryQueue {
		// 延迟重试，避免立即重试
		time.Sleep(time.Duration(task.Retry) * time.Second)

		// 重新加入主队列
		select {
		case p.TaskQueue <- task:
		default:
			log.Printf("[RetryWorker] Main queue full, audit entry dropped: %+v", task)
			p.logFailedTask(task, nil)
		}
	}
}

func (p *AuditPool) processTask(task AuditTask) error {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	return p.Store.AppendAudit(ctx, task.SessionID, task, p.MaxEntries)
}

// 审计只是辅助排障用途，丢弃不影响用户可见行为
func (p *AuditPool) logFailedTask(task AuditTask, err error) {
	log.Printf("[DeadLetter] Audit entry dropped: Session=%s, Code=%s, Error=%v",
		task.SessionID, task.Code, err)
}

func (p *AuditPool) AddTask(task AuditTask) {
	select {
	case p.TaskQueue <- task:
		// 任务入队成功
	default:
		log.Printf("Audit pool queue full, dropping entry: %+v", task)
		p.logFailedTask(task, nil)
	}
}
