package judge

import (
	"fmt"
)

// Policy 是对比评判的一致性策略
type Policy string

const (
	// PolicyMajority 要求某个一致的裁决拿到有效票的严格多数
	PolicyMajority Policy = "majority"
	// PolicyUnanimous 要求全部有效票给出同一裁决
	PolicyUnanimous Policy = "unanimous"
)

// ParsePolicy 校验配置中的一致性策略名
func ParsePolicy(s string) (Policy, error) {
	switch Policy(s) {
	case PolicyMajority, PolicyUnanimous:
		return Policy(s), nil
	}
	return "", fmt.Errorf("无效的一致性策略 %q，必须是 majority 或 unanimous", s)
}

// Quorum 返回n个副本达成一致所需的最低有效票数
func Quorum(n int) int {
	return n/2 + 1
}

// voteBloc 记录一组给出相同裁决的副本。
// firstRaw 保存组内下标最小的副本的原始输出，作为规范输出。
type voteBloc struct {
	count    int
	firstRaw string
}

// AgreeSolo 对单人评分的副本结果执行完全一致协议。
// 调用失败或输出不合法的副本计为弃票；有效票必须达到法定数量
// 且全部给出同一个整数评分，返回组内最早副本的原始输出。
func AgreeSolo(results []ReplicaResult) (string, error) {
	blocs := make(map[int]*voteBloc)
	cast := 0

	// 1. 规范化每个副本的输出，统计有效票
	for _, r := range results {
		if r.Err != nil {
			continue
		}
		score, err := DecodeSoloVerdict(r.Output)
		if err != nil {
			fmt.Printf("警告: 评委副本 %d 的评分输出不合法，计为弃票: %v\n", r.Index, err)
			continue
		}
		cast++
		if b, ok := blocs[score]; ok {
			b.count++
		} else {
			blocs[score] = &voteBloc{count: 1, firstRaw: r.Output}
		}
	}

	// 2. 法定票数与完全一致检查
	quorum := Quorum(len(results))
	topBloc := 0
	for _, b := range blocs {
		if b.count > topBloc {
			topBloc = b.count
		}
	}
	if cast < quorum || len(blocs) != 1 {
		return "", &AgreementError{Replicas: len(results), Cast: cast, Quorum: quorum, TopBloc: topBloc}
	}

	for _, b := range blocs {
		return b.firstRaw, nil
	}
	// len(blocs) == 1 保证不会到达这里
	return "", &AgreementError{Replicas: len(results), Cast: cast, Quorum: quorum, TopBloc: topBloc}
}

// AgreeComparative 对多人对比评判的副本结果执行一致性协议。
// 每个副本的输出先独立规范化，失败计为弃票；给出相同
// (winner, runner_up) 的有效票构成一组，按策略选出胜出组，
// 返回组内最早副本的原始输出作为规范输出。
func AgreeComparative(results []ReplicaResult, entryCount int, policy Policy) (string, error) {
	blocs := make(map[ComparativeVerdict]*voteBloc)
	cast := 0

	// 1. 规范化每个副本的输出，按裁决分组
	for _, r := range results {
		if r.Err != nil {
			continue
		}
		verdict, err := DecodeComparativeVerdict(r.Output, entryCount)
		if err != nil {
			fmt.Printf("警告: 评委副本 %d 的裁决输出不合法，计为弃票: %v\n", r.Index, err)
			continue
		}
		cast++
		if b, ok := blocs[*verdict]; ok {
			b.count++
		} else {
			blocs[*verdict] = &voteBloc{count: 1, firstRaw: r.Output}
		}
	}

	// 2. 法定票数检查
	quorum := Quorum(len(results))
	topBloc := 0
	var winning *voteBloc
	for _, b := range blocs {
		if b.count > topBloc {
			topBloc = b.count
		}
	}
	if cast < quorum {
		return "", &AgreementError{Replicas: len(results), Cast: cast, Quorum: quorum, TopBloc: topBloc}
	}

	// 3. 按策略选出胜出组
	for _, b := range blocs {
		switch policy {
		case PolicyUnanimous:
			if b.count == cast {
				winning = b
			}
		default:
			if b.count*2 > cast {
				winning = b
			}
		}
		if winning != nil {
			break
		}
	}
	if winning == nil {
		return "", &AgreementError{Replicas: len(results), Cast: cast, Quorum: quorum, TopBloc: topBloc}
	}

	return winning.firstRaw, nil
}
