package chain

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/blues/cfledger/internal/ledger"
	"github.com/blues/cfledger/internal/logger"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// Contract 账本事件编解码工具类
type Contract struct {
	address common.Address // 账本地址
	abi     abi.ABI        // 事件ABI
	name    string         // 合约名称
}

// NewContract 创建账本合约实例
func NewContract(name string, address common.Address) (*Contract, error) {
	parsedABI, err := abi.JSON(strings.NewReader(LedgerABI))
	if err != nil {
		return nil, fmt.Errorf("failed to parse ABI: %w", err)
	}

	return &Contract{
		address: address,
		abi:     parsedABI,
		name:    name,
	}, nil
}

// GetAddress 获取合约地址
func (c *Contract) GetAddress() common.Address {
	return c.address
}

// GetName 获取合约名称
func (c *Contract) GetName() string {
	return c.name
}

// EncodeEvent 将账本事件编码为日志
func (c *Contract) EncodeEvent(e ledger.Event, txHash common.Hash, blockNum uint64, index uint) (types.Log, error) {
	event, ok := c.abi.Events[e.EventName()]
	if !ok {
		return types.Log{}, fmt.Errorf("unknown event %s", e.EventName())
	}

	values, err := eventValues(e)
	if err != nil {
		return types.Log{}, err
	}
	if len(values) != len(event.Inputs) {
		return types.Log{}, fmt.Errorf("event %s expects %d values, got %d", event.Name, len(event.Inputs), len(values))
	}

	topics := []common.Hash{event.ID}
	var data []interface{}
	for i, input := range event.Inputs {
		if !input.Indexed {
			data = append(data, values[i])
			continue
		}
		topic, err := topicOf(values[i])
		if err != nil {
			return types.Log{}, fmt.Errorf("event %s topic %s: %w", event.Name, input.Name, err)
		}
		topics = append(topics, topic)
	}

	packed, err := event.Inputs.NonIndexed().Pack(data...)
	if err != nil {
		return types.Log{}, fmt.Errorf("failed to pack %s: %w", event.Name, err)
	}

	return types.Log{
		Address:     c.address,
		Topics:      topics,
		Data:        packed,
		BlockNumber: blockNum,
		TxHash:      txHash,
		Index:       index,
	}, nil
}

// eventValues 按ABI参数顺序展开事件字段
func eventValues(e ledger.Event) ([]interface{}, error) {
	switch ev := e.(type) {
	case ledger.ProjectCreated:
		return []interface{}{new(big.Int).SetUint64(ev.ProjectID), ev.Creator}, nil
	case ledger.ContributionMade:
		return []interface{}{new(big.Int).SetUint64(ev.ProjectID), ev.Contributor, ev.Amount, ev.Total}, nil
	case ledger.ProjectSuccessful:
		return []interface{}{new(big.Int).SetUint64(ev.ProjectID), ev.FinalAmount}, nil
	case ledger.ProjectFailed:
		return []interface{}{new(big.Int).SetUint64(ev.ProjectID)}, nil
	case ledger.FundsWithdrawn:
		return []interface{}{new(big.Int).SetUint64(ev.ProjectID), ev.CreatorAmount, ev.FeeAmount}, nil
	case ledger.RefundIssued:
		return []interface{}{new(big.Int).SetUint64(ev.ProjectID), ev.Contributor, ev.Amount}, nil
	case ledger.PlatformFeeUpdated:
		return []interface{}{new(big.Int).SetUint64(ev.OldRate), new(big.Int).SetUint64(ev.NewRate)}, nil
	default:
		return nil, fmt.Errorf("unsupported event type %T", e)
	}
}

func topicOf(value interface{}) (common.Hash, error) {
	switch v := value.(type) {
	case *big.Int:
		return common.BigToHash(v), nil
	case common.Address:
		return common.BytesToHash(v.Bytes()), nil
	default:
		return common.Hash{}, fmt.Errorf("unsupported indexed type %T", value)
	}
}

// ParseEvent 解析事件日志
func (c *Contract) ParseEvent(log types.Log) (map[string]interface{}, error) {
	if len(log.Topics) == 0 {
		return nil, fmt.Errorf("log without topics in tx %s", log.TxHash.Hex())
	}
	eventSignature := log.Topics[0].Hex()

	// 遍历ABI中的事件
	for eventName, event := range c.abi.Events {
		if event.ID.Hex() == eventSignature {
			return c.parseEvent(eventName, log, event)
		}
	}

	// 未知事件
	logger.Warn("Unknown event signature: %s in contract %s", eventSignature, c.name)
	return map[string]interface{}{
		"eventName":   "Unknown",
		"signature":   eventSignature,
		"contract":    c.name,
		"txHash":      log.TxHash.Hex(),
		"blockNumber": log.BlockNumber,
		"logIndex":    log.Index,
	}, nil
}

// parseEvent 解析事件
func (c *Contract) parseEvent(eventName string, log types.Log, event abi.Event) (map[string]interface{}, error) {
	result := make(map[string]interface{})
	result["eventName"] = eventName
	result["contract"] = c.name
	result["txHash"] = log.TxHash.Hex()
	result["blockNumber"] = log.BlockNumber
	result["logIndex"] = log.Index

	// 解析索引参数
	topicIndex := 1
	for _, input := range event.Inputs {
		if !input.Indexed {
			continue
		}
		if topicIndex >= len(log.Topics) {
			return nil, fmt.Errorf("event %s missing topic for %s", eventName, input.Name)
		}
		value, err := c.parseTopicValue(log.Topics[topicIndex], input.Type)
		if err != nil {
			return nil, fmt.Errorf("failed to parse indexed parameter %s: %w", input.Name, err)
		}
		result[input.Name] = value
		topicIndex++
	}

	// 解析非索引参数
	nonIndexed := event.Inputs.NonIndexed()
	if len(nonIndexed) > 0 {
		values, err := c.abi.Unpack(eventName, log.Data)
		if err != nil {
			return nil, fmt.Errorf("failed to unpack non-indexed parameters: %w", err)
		}
		for i, input := range nonIndexed {
			if i < len(values) {
				result[input.Name] = values[i]
			}
		}
	}

	return result, nil
}

// parseTopicValue 解析主题值
func (c *Contract) parseTopicValue(topic common.Hash, t abi.Type) (interface{}, error) {
	switch t.T {
	case abi.UintTy, abi.IntTy:
		return new(big.Int).SetBytes(topic.Bytes()), nil
	case abi.AddressTy:
		return common.BytesToAddress(topic.Bytes()), nil
	case abi.BoolTy:
		return new(big.Int).SetBytes(topic.Bytes()).Sign() > 0, nil
	default:
		return nil, fmt.Errorf("unsupported topic type %s", t.String())
	}
}
