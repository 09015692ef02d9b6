package webhook

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"

	orderUsecases "settlo/internal/application/order/usecases"
	walletUsecases "settlo/internal/application/wallet/usecases"
	"settlo/internal/domain/order"
	vo "settlo/internal/domain/order/valueobjects"
	"settlo/internal/shared/biztime"
	"settlo/internal/shared/config"
	apperrors "settlo/internal/shared/errors"
	"settlo/internal/shared/logger"
)

// HandleResult is the structured outcome returned to the notifier.
type HandleResult struct {
	OrderNo   string `json:"order_no"`
	Status    string `json:"status"`
	Duplicate bool   `json:"duplicate"`
}

// Service verifies and dispatches inbound payment notifications. Deposit
// orders route to the ledger credit path; everything else settles by amount
// attribution. A transaction hash settles at most one order, so replays of
// any shape resolve through the tx hash lookup before attribution runs.
type Service struct {
	orderRepo order.OrderRepository
	settleUC  *orderUsecases.SettleOrderUseCase
	depositUC *walletUsecases.ProcessDepositCallbackUseCase
	settings  config.Settings
	validate  *validator.Validate
	logger    logger.Interface
}

func NewService(
	orderRepo order.OrderRepository,
	settleUC *orderUsecases.SettleOrderUseCase,
	depositUC *walletUsecases.ProcessDepositCallbackUseCase,
	settings config.Settings,
	logger logger.Interface,
) *Service {
	return &Service{
		orderRepo: orderRepo,
		settleUC:  settleUC,
		depositUC: depositUC,
		settings:  settings,
		validate:  validator.New(),
		logger:    logger,
	}
}

func (s *Service) Handle(ctx context.Context, body []byte) (*HandleResult, error) {
	p, err := ParsePayload(body)
	if err != nil {
		return nil, err
	}

	if !VerifySignature(p, s.settings.WebhookSecret()) {
		s.logger.Warnw("rejected webhook with invalid signature", "tx_hash", p.TxHash)
		return nil, apperrors.NewInvalidSignatureError()
	}

	skew := time.Duration(s.settings.TimestampSkewSeconds()) * time.Second
	if err := p.Validate(s.validate, biztime.NowUTC(), skew); err != nil {
		return nil, err
	}

	amountMicro, err := p.AmountMicro()
	if err != nil {
		return nil, err
	}

	// Replay guard. After settlement the amount's suffix goes back to the
	// pool, so a replayed notification could otherwise attribute to a newer
	// order carrying the same total.
	if settled, err := s.orderRepo.GetByTxHash(ctx, p.TxHash); err == nil && settled != nil {
		s.logger.Infow("duplicate webhook delivery",
			"tx_hash", p.TxHash,
			"order_no", settled.OrderNo(),
		)
		return &HandleResult{OrderNo: settled.OrderNo(), Status: settled.Status().String(), Duplicate: true}, nil
	} else if err != nil && !apperrors.IsNotFoundError(err) {
		return nil, err
	}

	if p.Type().IsDeposit() {
		return s.handleDeposit(ctx, p, amountMicro)
	}

	o, err := s.orderRepo.FindPendingByTotalAmount(ctx, amountMicro)
	if err != nil {
		return nil, err
	}
	if o.OrderType().IsDeposit() {
		return s.depositByOrderNo(ctx, o.OrderNo(), amountMicro, p.TxHash)
	}

	res, err := s.settleUC.Execute(ctx, orderUsecases.SettleOrderCommand{
		OrderNo:     o.OrderNo(),
		AmountMicro: amountMicro,
		TxHash:      p.TxHash,
	})
	if err != nil {
		return nil, err
	}
	return &HandleResult{OrderNo: res.OrderNo, Status: res.Status.String(), Duplicate: res.AlreadyPaid}, nil
}

func (s *Service) handleDeposit(ctx context.Context, p *Payload, amountMicro int64) (*HandleResult, error) {
	orderNo := p.OrderID
	if orderNo == "" {
		// Deposit notifiers may omit the order reference; fall back to
		// amount attribution like the generic path.
		o, err := s.orderRepo.FindPendingByTotalAmount(ctx, amountMicro)
		if err != nil {
			return nil, err
		}
		orderNo = o.OrderNo()
	}
	return s.depositByOrderNo(ctx, orderNo, amountMicro, p.TxHash)
}

func (s *Service) depositByOrderNo(ctx context.Context, orderNo string, amountMicro int64, txHash string) (*HandleResult, error) {
	res, err := s.depositUC.Execute(ctx, walletUsecases.ProcessDepositCallbackCommand{
		OrderNo:     orderNo,
		AmountMicro: amountMicro,
		TxHash:      txHash,
	})
	if err != nil {
		return nil, err
	}
	status := "paid"
	return &HandleResult{OrderNo: res.OrderNo, Status: status, Duplicate: res.AlreadyCredited}, nil
}

// Simulate builds a correctly signed synthetic notification for a known
// order and runs it through the normal handling path. The tx hash is
// derived from the order number so repeated simulations of the same order
// land on the replay guard instead of erroring.
func (s *Service) Simulate(ctx context.Context, orderNo string) (*HandleResult, []byte, error) {
	o, err := s.orderRepo.GetByOrderNo(ctx, orderNo)
	if err != nil {
		return nil, nil, err
	}

	body, err := s.BuildSimulatedPayload(o)
	if err != nil {
		return nil, nil, err
	}

	res, err := s.Handle(ctx, body)
	return res, body, err
}

// BuildSimulatedPayload renders the signed JSON body a real notifier would
// send for the given order, without executing it.
func (s *Service) BuildSimulatedPayload(o *order.Order) ([]byte, error) {
	sum := sha256.Sum256([]byte("settlo-sim:" + o.OrderNo()))

	p := &Payload{
		OrderID:     o.OrderNo(),
		Amount:      json.Number(vo.FormatMicro(o.TotalAmountMicro())),
		TxHash:      "0x" + hex.EncodeToString(sum[:]),
		BlockNumber: 0,
		Timestamp:   biztime.NowUTC().Unix(),
		OrderType:   o.OrderType().String(),
	}
	p.Signature = Sign(p, s.settings.WebhookSecret())

	body, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal simulated payload: %w", err)
	}
	return body, nil
}
