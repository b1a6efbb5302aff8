package market

// Publisher 一个轻量事件分发器：向订阅者广播实时窗口与新增大单。
// 发送非阻塞，慢订阅者丢最新一条而不是拖住轮询周期。
type Publisher struct {
	batchSubs []chan []Tick
	largeSubs []chan Tick
}

func NewPublisher() *Publisher {
	return &Publisher{
		batchSubs: make([]chan []Tick, 0),
		largeSubs: make([]chan Tick, 0),
	}
}

// SubscribeBatch 订阅每个周期的实时窗口快照。
func (p *Publisher) SubscribeBatch() <-chan []Tick {
	ch := make(chan []Tick, 1)
	p.batchSubs = append(p.batchSubs, ch)
	return ch
}

// SubscribeLarge 订阅新入池的大单。
func (p *Publisher) SubscribeLarge() <-chan Tick {
	ch := make(chan Tick, 16)
	p.largeSubs = append(p.largeSubs, ch)
	return ch
}

func (p *Publisher) PublishBatch(ticks []Tick) {
	for _, ch := range p.batchSubs {
		select {
		case ch <- ticks:
		default:
		}
	}
}

func (p *Publisher) PublishLarge(t Tick) {
	for _, ch := range p.largeSubs {
		select {
		case ch <- t:
		default:
		}
	}
}
