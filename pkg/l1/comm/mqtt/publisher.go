package mqtt

import (
	"context"
	"encoding/json"

	fx "github.com/robotalks/openrover.go/pkg/framework"
	"github.com/robotalks/openrover.go/pkg/l1"
	"github.com/robotalks/openrover.go/pkg/l1/comm"
)

// Publisher registers a rover controller on the broker: it keeps the
// retained name/meta JSON while online, publishes events to name/msg and
// receives commands from name/cmd. The broker clears meta through the
// last will if the controller goes away unexpectedly.
type Publisher struct {
	Queue *Queue
	Info  l1.ControllerInfo

	registrar comm.Registrar
}

// NewPublisher creates a Publisher.
func NewPublisher(brokerURL string, info l1.ControllerInfo) (*Publisher, error) {
	opts, err := ParseURL(brokerURL)
	if err != nil {
		return nil, err
	}
	opts.Client.SetBinaryWill(opts.TopicPrefix+info.Ref.Name()+"/"+TopicMeta, nil, 1, true)
	if opts.Client.ClientID == "" {
		opts.Client.SetClientID("openrover:" + info.Ref.Name())
	}
	p := &Publisher{Queue: NewQueue(opts), Info: info}
	p.Queue.OnConnect = func(*Queue) { p.publishMeta() }
	p.registrar.Init(NewPacketReadWriter(p.Queue).ForController(info.Ref))
	return p, nil
}

// SendEvent implements l1.Registrar.
func (p *Publisher) SendEvent(ctx context.Context, msg fx.Message) error {
	return p.registrar.SendEvent(ctx, msg)
}

// AddToLoop implements LoopAdder.
func (p *Publisher) AddToLoop(loop *fx.Loop) {
	loop.Add(&p.registrar)
	loop.AddRunnable(fx.NamedRun("mqtt", p))
}

// Run implements Runnable.
func (p *Publisher) Run(ctx context.Context) error {
	token := p.Queue.Connect()
	token.Wait()
	if err := token.Error(); err != nil {
		return err
	}
	<-ctx.Done()
	p.Queue.PubWith(p.metaTopic(), nil, 1, true).Wait()
	p.Queue.Close()
	return ctx.Err()
}

func (p *Publisher) metaTopic() string {
	return p.Info.Ref.Name() + "/" + TopicMeta
}

func (p *Publisher) publishMeta() {
	meta, err := json.Marshal(&p.Info.Meta)
	if err != nil {
		panic(err)
	}
	p.Queue.PubWith(p.metaTopic(), meta, 1, true)
}
